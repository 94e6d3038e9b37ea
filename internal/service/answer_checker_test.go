package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"notesnap/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCheckerFixture(reply string) (*AnswerChecker, *MockCache, *scriptedGenerator) {
	c := new(MockCache)
	gen := &scriptedGenerator{replies: map[string]string{"model-a": reply}}
	return NewAnswerChecker(NewCandidatePolicy(gen, []string{"model-a"}), c, time.Hour), c, gen
}

var sampleCheck = CheckInput{Question: "Capital of France?", ModelAnswer: "Paris", UserAnswer: "paris"}

func TestAnswerChecker_Check_CachesDefiniteVerdict(t *testing.T) {
	checker, c, gen := newCheckerFixture("CORRECT\nThe answer names the same city.")
	c.On("Get", mock.Anything, mock.AnythingOfType("string")).Return("", domain.ErrCacheMiss)
	c.On("Set", mock.Anything, mock.AnythingOfType("string"), mock.MatchedBy(func(v string) bool {
		return v == `{"verdict":"correct","explanation":"The answer names the same city."}`
	}), time.Hour).Return(nil)

	result, err := checker.Check(context.Background(), sampleCheck)
	require.NoError(t, err)
	assert.Equal(t, VerdictCorrect, result.Verdict)
	assert.Equal(t, "The answer names the same city.", result.Explanation)
	assert.False(t, result.Cached)
	assert.Len(t, gen.calls, 1)
	c.AssertExpectations(t)
}

// gatedGenerator blocks every call until release is closed.
type gatedGenerator struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
	ctxErr  atomic.Value
}

func (g *gatedGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	if g.calls.Add(1) == 1 {
		close(g.started)
	}
	<-g.release
	if err := ctx.Err(); err != nil {
		g.ctxErr.Store(err)
		return "", err
	}
	return "incorrect\nLyon is not the capital.", nil
}

func TestAnswerChecker_Check_SharesConcurrentCalls(t *testing.T) {
	c := new(MockCache)
	c.On("Get", mock.Anything, mock.AnythingOfType("string")).Return("", domain.ErrCacheMiss)
	c.On("Set", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("string"), time.Hour).Return(nil)

	gen := &gatedGenerator{started: make(chan struct{}), release: make(chan struct{})}
	checker := NewAnswerChecker(NewCandidatePolicy(gen, []string{"model-a"}), c, time.Hour)

	const callers = 5
	results := make([]*CheckResult, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := checker.Check(context.Background(), sampleCheck)
			assert.NoError(t, err)
			results[i] = r
		}(i)
	}

	<-gen.started
	time.Sleep(50 * time.Millisecond)
	close(gen.release)
	wg.Wait()

	assert.Equal(t, int32(1), gen.calls.Load())
	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, VerdictIncorrect, r.Verdict)
	}
}

func TestAnswerChecker_Check_CancelledCallerDoesNotFailOthers(t *testing.T) {
	c := new(MockCache)
	c.On("Get", mock.Anything, mock.AnythingOfType("string")).Return("", domain.ErrCacheMiss)
	c.On("Set", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("string"), time.Hour).Return(nil)

	gen := &gatedGenerator{started: make(chan struct{}), release: make(chan struct{})}
	checker := NewAnswerChecker(NewCandidatePolicy(gen, []string{"model-a"}), c, time.Hour)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := checker.Check(firstCtx, sampleCheck)
		firstErr <- err
	}()
	<-gen.started

	second := make(chan *CheckResult, 1)
	go func() {
		r, err := checker.Check(context.Background(), sampleCheck)
		assert.NoError(t, err)
		second <- r
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(gen.release)
	r := <-second
	require.NotNil(t, r)
	assert.Equal(t, VerdictIncorrect, r.Verdict)
	assert.Nil(t, gen.ctxErr.Load(), "the shared model call keeps running")
	assert.Equal(t, int32(1), gen.calls.Load())
}

func TestAnswerChecker_Check_CacheHit(t *testing.T) {
	checker, c, gen := newCheckerFixture("CORRECT")
	c.On("Get", mock.Anything, mock.AnythingOfType("string")).Return(`{"verdict":"incorrect","explanation":"no"}`, nil)

	result, err := checker.Check(context.Background(), sampleCheck)
	require.NoError(t, err)
	assert.Equal(t, VerdictIncorrect, result.Verdict)
	assert.True(t, result.Cached)
	assert.Empty(t, gen.calls)
}

func TestAnswerChecker_Check_BusyIsNotCached(t *testing.T) {
	checker, c, gen := newCheckerFixture("")
	gen.replies = nil
	gen.errs = map[string]error{"model-a": quotaErr("model-a")}
	c.On("Get", mock.Anything, mock.AnythingOfType("string")).Return("", domain.ErrCacheMiss)

	result, err := checker.Check(context.Background(), sampleCheck)
	require.NoError(t, err)
	assert.Equal(t, VerdictIndeterminate, result.Verdict)
	assert.Equal(t, BusyMessage, result.Explanation)
	c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAnswerChecker_Check_Validation(t *testing.T) {
	checker, c, _ := newCheckerFixture("CORRECT")

	_, err := checker.Check(context.Background(), CheckInput{UserAnswer: "x"})
	assertCode(t, err, domain.CodeInvalidInput)

	_, err = checker.Check(context.Background(), CheckInput{Question: "q", UserAnswer: "  "})
	assertCode(t, err, domain.CodeInvalidInput)

	c.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestAnswerChecker_Check_CacheErrorsIgnored(t *testing.T) {
	checker, c, _ := newCheckerFixture("INCORRECT: wrong city")
	c.On("Get", mock.Anything, mock.AnythingOfType("string")).Return("", errors.New("redis down"))
	c.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))

	result, err := checker.Check(context.Background(), sampleCheck)
	require.NoError(t, err)
	assert.Equal(t, VerdictIncorrect, result.Verdict)
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		reply       string
		verdict     Verdict
		explanation string
	}{
		{reply: "CORRECT", verdict: VerdictCorrect},
		{reply: "**Incorrect.**\nIt is Paris.", verdict: VerdictIncorrect, explanation: "It is Paris."},
		{reply: "正解\n同じ意味です。", verdict: VerdictCorrect, explanation: "同じ意味です。"},
		{reply: "不正解", verdict: VerdictIncorrect},
		{reply: "Partially right", verdict: VerdictIndeterminate, explanation: "Partially right"},
		{reply: "", verdict: VerdictIndeterminate},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			got := parseVerdict(tt.reply)
			assert.Equal(t, tt.verdict, got.Verdict)
			assert.Equal(t, tt.explanation, got.Explanation)
		})
	}
}

func TestCheckDigest(t *testing.T) {
	a := checkDigest(CheckInput{Question: "q", ModelAnswer: "ab", UserAnswer: "c"})
	b := checkDigest(CheckInput{Question: "q", ModelAnswer: "a", UserAnswer: "bc"})
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, checkDigest(CheckInput{Question: " q ", ModelAnswer: "ab", UserAnswer: "c\n"}))
}
