package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode"

	"notesnap/internal/cache"
	"notesnap/internal/domain"
	"notesnap/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Verdict string

const (
	VerdictCorrect       Verdict = "correct"
	VerdictIncorrect     Verdict = "incorrect"
	VerdictIndeterminate Verdict = "indeterminate"
)

type CheckInput struct {
	Question    string
	ModelAnswer string
	UserAnswer  string
}

type CheckResult struct {
	Verdict     Verdict `json:"verdict"`
	Explanation string  `json:"explanation,omitempty"`
	Cached      bool    `json:"-"`
}

// AnswerChecker asks a model to judge one answer. Definite verdicts are cached,
// and identical checks in flight at the same time share one model call.
type AnswerChecker struct {
	policy *CandidatePolicy
	cache  domain.Cache
	ttl    time.Duration
	group  singleflight.Group
}

func NewAnswerChecker(policy *CandidatePolicy, c domain.Cache, ttl time.Duration) *AnswerChecker {
	return &AnswerChecker{policy: policy, cache: c, ttl: ttl}
}

func (a *AnswerChecker) Check(ctx context.Context, in CheckInput) (*CheckResult, error) {
	l := logger.Get()

	if strings.TrimSpace(in.Question) == "" {
		return nil, domain.NewInvalidInputError("question is required")
	}
	if strings.TrimSpace(in.UserAnswer) == "" {
		return nil, domain.NewInvalidInputError("user_answer is required")
	}

	key := cache.AnswerCheckKey(checkDigest(in))
	if cached, ok := a.lookup(ctx, key); ok {
		l.Debug("Answer verdict served from cache", zap.String("key", key))
		return cached, nil
	}

	// The shared call outlives any single caller; each caller stops waiting on its own ctx.
	shared := context.WithoutCancel(ctx)
	ch := a.group.DoChan(key, func() (interface{}, error) {
		return a.judge(shared, key, in), nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		result := *res.Val.(*CheckResult)
		return &result, nil
	}
}

func (a *AnswerChecker) judge(ctx context.Context, key string, in CheckInput) *CheckResult {
	outcome := a.policy.Run(ctx, BuildJudgePrompt(in.Question, in.ModelAnswer, in.UserAnswer))
	if outcome.State != OutcomeSucceeded {
		return &CheckResult{Verdict: VerdictIndeterminate, Explanation: outcome.Text}
	}

	result := parseVerdict(outcome.Text)
	if result.Verdict != VerdictIndeterminate {
		a.store(ctx, key, result)
	}
	return result
}

func (a *AnswerChecker) lookup(ctx context.Context, key string) (*CheckResult, bool) {
	if a.cache == nil {
		return nil, false
	}
	raw, err := a.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Warn("Answer cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var result CheckResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, false
	}
	result.Cached = true
	return &result, true
}

func (a *AnswerChecker) store(ctx context.Context, key string, result *CheckResult) {
	if a.cache == nil {
		return
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, key, string(encoded), a.ttl); err != nil {
		logger.Get().Warn("Answer cache write failed", zap.Error(err))
	}
}

// checkDigest hashes the normalized inputs; fields are separated by NUL so
// shifting text between fields changes the digest.
func checkDigest(in CheckInput) string {
	h := sha256.New()
	for _, part := range []string{in.Question, in.ModelAnswer, in.UserAnswer} {
		h.Write([]byte(strings.TrimSpace(part)))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// parseVerdict maps the first line of a reply to a verdict; the remaining lines
// become the explanation.
func parseVerdict(reply string) *CheckResult {
	reply = strings.TrimSpace(reply)
	first, rest, _ := strings.Cut(reply, "\n")

	word := strings.ToLower(strings.TrimFunc(first, func(r rune) bool {
		return !unicode.IsLetter(r)
	}))
	if fields := strings.Fields(word); len(fields) > 0 {
		word = strings.TrimFunc(fields[0], func(r rune) bool { return !unicode.IsLetter(r) })
	}

	verdict := VerdictIndeterminate
	switch word {
	case "correct", "正解":
		verdict = VerdictCorrect
	case "incorrect", "不正解":
		verdict = VerdictIncorrect
	}

	explanation := strings.TrimSpace(rest)
	if verdict == VerdictIndeterminate {
		explanation = reply
	}
	return &CheckResult{Verdict: verdict, Explanation: explanation}
}
