package crpt

import (
	"context"

	"crpt-gateway/crpt/domain"
)

type allowFunc func() bool

func (f allowFunc) Allow() bool { return f() }

type fixedStore struct{ allow bool }

func (s fixedStore) Get(domain.ClientKey) domain.ClientLimiter {
	return allowFunc(func() bool { return s.allow })
}

type fakeSubmitter struct {
	body    []byte
	err     error
	waited  int
	tried   int
	lastDoc domain.Document
	lastSig string
}

func (f *fakeSubmitter) Submit(ctx context.Context, doc domain.Document, signature string) ([]byte, error) {
	f.waited++
	f.lastDoc, f.lastSig = doc, signature
	return f.body, f.err
}

func (f *fakeSubmitter) TrySubmit(ctx context.Context, doc domain.Document, signature string) ([]byte, error) {
	f.tried++
	f.lastDoc, f.lastSig = doc, signature
	return f.body, f.err
}

type fixedState struct{ available, waiting int }

func (s fixedState) Available() int { return s.available }
func (s fixedState) Waiting() int   { return s.waiting }
