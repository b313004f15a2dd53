package llm

import (
	"context"

	"github.com/nguyentantai21042004/insight-flow/pkg/semaphore"
)

type limitedClient struct {
	Client
	sem *semaphore.Semaphore
}

// Limit wraps c so that at most n Generate calls run at once. Waiting for a
// slot counts against the caller's context.
func Limit(c Client, n int) Client {
	return &limitedClient{Client: c, sem: semaphore.New(n)}
}

func (l *limitedClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := l.sem.Acquire(ctx); err != nil {
		return "", NewError(l.Name(), Transient, err)
	}
	defer l.sem.Release()
	return l.Client.Generate(ctx, prompt)
}
