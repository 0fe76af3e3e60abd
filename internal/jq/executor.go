// Package jq evaluates jq queries against rendered definition documents.
package jq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/itchyny/gojq"
)

const (
	// DefaultTimeout bounds a single query. Definition documents are
	// small, so a well-formed query finishes near-instantly; the bound
	// exists for pathological queries like while(true; .).
	DefaultTimeout = 2 * time.Second

	// DefaultMaxDocumentSize is the largest definition document a query
	// will run against (10MB). Rendered definitions are typically a few
	// kilobytes; anything near this limit is not a definition.
	DefaultMaxDocumentSize = 10 * 1024 * 1024
)

// Executor runs jq queries over definition documents with a timeout and
// a document-size cap.
type Executor struct {
	timeout         time.Duration
	maxDocumentSize int64
}

// NewExecutor creates an executor. Zero values select the defaults.
func NewExecutor(timeout time.Duration, maxDocumentSize int64) *Executor {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if maxDocumentSize == 0 {
		maxDocumentSize = DefaultMaxDocumentSize
	}

	return &Executor{
		timeout:         timeout,
		maxDocumentSize: maxDocumentSize,
	}
}

// Execute runs a query against a definition document. An empty query is
// the identity. A query producing one value returns that value; multiple
// values (".Steps[].Name" over several steps) come back as a slice.
func (e *Executor) Execute(ctx context.Context, query string, doc interface{}) (interface{}, error) {
	if query == "" {
		return doc, nil
	}

	if err := e.checkDocumentSize(doc); err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	parsed, err := gojq.Parse(query)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("compile error: %w", err)
	}

	resultChan := make(chan interface{}, 1)
	errorChan := make(chan error, 1)

	go func() {
		iter := code.Run(doc)

		var results []interface{}
		for {
			v, ok := iter.Next()
			if !ok {
				break
			}

			if err, isErr := v.(error); isErr {
				errorChan <- err
				return
			}

			results = append(results, v)
		}

		switch len(results) {
		case 0:
			resultChan <- nil
		case 1:
			resultChan <- results[0]
		default:
			resultChan <- results
		}
	}()

	select {
	case result := <-resultChan:
		return result, nil
	case err := <-errorChan:
		return nil, err
	case <-queryCtx.Done():
		return nil, fmt.Errorf("query timeout after %v", e.timeout)
	}
}

// Validate checks that a query compiles. The inspect command runs this
// before reading the definition so a bad query fails fast.
func (e *Executor) Validate(query string) error {
	if query == "" {
		return nil
	}

	parsed, err := gojq.Parse(query)
	if err != nil {
		return fmt.Errorf("invalid jq query: %w", err)
	}

	if _, err := gojq.Compile(parsed); err != nil {
		return fmt.Errorf("jq compilation failed: %w", err)
	}

	return nil
}

// checkDocumentSize rejects documents over the cap. Size is estimated by
// marshaling, which is what the query result printer does anyway.
func (e *Executor) checkDocumentSize(doc interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	if int64(len(data)) > e.maxDocumentSize {
		return fmt.Errorf("document size (%d bytes) exceeds maximum (%d bytes)",
			len(data), e.maxDocumentSize)
	}

	return nil
}
