// internal/access/policy.go
package access

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"movie-reviews/internal/domain"
)

//go:embed model.conf
var policyModel string

//go:embed policy.csv
var policyRules string

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("admin access required")
)

// Operation is an action on a kind of resource.
type Operation struct {
	Object string
	Action string
}

func (op Operation) String() string {
	return op.Object + ":" + op.Action
}

var (
	ReadMovie      = Operation{Object: "movie", Action: "read"}
	CreateMovie    = Operation{Object: "movie", Action: "create"}
	ReadReview     = Operation{Object: "review", Action: "read"}
	CreateReview   = Operation{Object: "review", Action: "create"}
	DeleteReview   = Operation{Object: "review", Action: "delete"}
	ListAllReviews = Operation{Object: "review", Action: "list_all"}
)

// Policy decides which roles may perform which operations.
type Policy struct {
	enforcer *casbin.SyncedEnforcer
}

// NewPolicy loads the embedded role model and rules.
func NewPolicy() (*Policy, error) {
	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create policy enforcer: %w", err)
	}
	if err := loadRules(enforcer, policyRules); err != nil {
		return nil, err
	}
	return &Policy{enforcer: enforcer}, nil
}

func loadRules(enforcer *casbin.SyncedEnforcer, rules string) error {
	for _, line := range strings.Split(rules, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch {
		case parts[0] == "p" && len(parts) == 4:
			if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", parts[1:], err)
			}
		case parts[0] == "g" && len(parts) == 3:
			if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("failed to add role %v: %w", parts[1:], err)
			}
		default:
			return fmt.Errorf("malformed policy line %q", line)
		}
	}
	return nil
}

// Authorize returns nil when id may perform op. Denials are ErrUnauthenticated
// for anonymous callers and ErrForbidden for everyone else.
func (p *Policy) Authorize(id domain.Identity, op Operation) error {
	allowed, err := p.enforcer.Enforce(id.Role(), op.Object, op.Action)
	if err != nil {
		return fmt.Errorf("policy evaluation failed for %s: %w", op, err)
	}
	if allowed {
		return nil
	}
	if !id.Authenticated {
		return ErrUnauthenticated
	}
	return ErrForbidden
}
