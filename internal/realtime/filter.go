package realtime

import (
	"context"
	"fmt"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/hellforge/tradepost/internal/ports"
)

// Filter narrows a change stream with a JMESPath expression evaluated
// against the change envelope (table, op, payload). A truthy result passes.
// The zero expression matches everything.
type Filter struct {
	expression string
}

// NewFilter validates a JMESPath filter expression. An empty expression
// yields a match-all filter.
func NewFilter(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return &Filter{}, nil
	}
	if _, err := jmespath.Compile(expression); err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", expression, err)
	}
	return &Filter{expression: expression}, nil
}

// Match reports whether the change passes the filter. Evaluation errors
// count as no match; a broken filter must not leak events.
func (f *Filter) Match(change ports.Change) bool {
	if f == nil || f.expression == "" {
		return true
	}

	envelope := map[string]any{
		"table":   change.Table,
		"op":      change.Op,
		"payload": change.Payload,
	}
	result, err := jmespath.Search(f.expression, envelope)
	if err != nil {
		return false
	}
	return isTruthy(result)
}

// isTruthy follows JMESPath semantics: null, false, empty string, empty
// array, and empty object are false; everything else is true.
func isTruthy(v any) bool {
	switch tv := v.(type) {
	case nil:
		return false
	case bool:
		return tv
	case string:
		return tv != ""
	case []any:
		return len(tv) > 0
	case map[string]any:
		return len(tv) > 0
	default:
		return true
	}
}

// Subscribe delivers the table's changes that pass the filter. The returned
// channel closes when the upstream subscription ends.
func Subscribe(
	ctx context.Context,
	feed ports.ChangeFeed,
	table string,
	filter *Filter,
) (<-chan ports.Change, error) {
	upstream, err := feed.Subscribe(ctx, table)
	if err != nil {
		return nil, err
	}

	out := make(chan ports.Change)
	go func() {
		defer close(out)
		for change := range upstream {
			if !filter.Match(change) {
				continue
			}
			select {
			case out <- change:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
