package controller

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// SelfTestAttempts сколько раз читать ответ на каждую команду
const SelfTestAttempts = 5

// SelfTestCase команда и ожидаемый ответ прошивки
type SelfTestCase struct {
	Command  string
	Expected string
}

// SelfTestResult результат одной проверки
type SelfTestResult struct {
	SelfTestCase
	Got    []string
	Passed bool
	Err    error
}

// DefaultSelfTestCases таблица проверки прошивки
func DefaultSelfTestCases() []SelfTestCase {
	cases := []SelfTestCase{
		{"a1", "A:1"},
		{"a12", "A:12"},
		{"a123", "A:123"},

		{"s1", "S:1"},
		{"s12", "S:12"},
		{"s123", "S:123"},

		{"mm", "M:man"},
		{"ma", "M:auto"},

		{"t", "E:t-"},
		{"12345", "E:len"},
		{"1", "E:1-"},
		{"m", "E:m-"},
		{"mq", "E:mq-"},
	}
	for i := 0; i < 16; i++ {
		cases = append(cases, SelfTestCase{"a123", "A:123"})
	}
	return cases
}

// SelfTest прогоняет таблицу команд через канал
type SelfTest struct {
	link     *Link
	attempts int
	delay    time.Duration
	warmup   time.Duration
}

// NewSelfTest создаёт проверку; delay пауза перед каждым чтением, warmup ожидание после пробуждения
func NewSelfTest(link *Link, delay, warmup time.Duration) *SelfTest {
	return &SelfTest{
		link:     link,
		attempts: SelfTestAttempts,
		delay:    delay,
		warmup:   warmup,
	}
}

// Run выполняет проверки по порядку. Ошибка возвращается только если канал недоступен.
func (s *SelfTest) Run(ctx context.Context, cases []SelfTestCase) ([]SelfTestResult, error) {
	// пустая запись будит контроллер после открытия порта
	if err := s.link.Write(nil); err != nil {
		return nil, fmt.Errorf("wake controller: %w", err)
	}
	if err := sleepCtx(ctx, s.warmup); err != nil {
		return nil, err
	}

	results := make([]SelfTestResult, 0, len(cases))
	for _, tc := range cases {
		lines, err := s.link.Exchange(ctx, []byte(tc.Command), s.attempts, s.delay)
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		res := SelfTestResult{
			SelfTestCase: tc,
			Got:          lines,
			Passed:       err == nil && slices.Contains(lines, tc.Expected),
			Err:          err,
		}
		if res.Passed {
			Logf("Testing: %s -> %s PASS", tc.Command, tc.Expected)
		} else {
			Logf("Testing: %s -> %s FAIL (got %q, err %v)", tc.Command, tc.Expected, lines, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// Failed количество непройденных проверок
func Failed(results []SelfTestResult) int {
	n := 0
	for _, r := range results {
		if !r.Passed {
			n++
		}
	}
	return n
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
