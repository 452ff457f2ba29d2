package lifecycle

import (
	"slices"

	"github.com/fjod/go_delivery/internal/domain"
)

// Edge lets Role move an entity to To when its effective status is one of From.
type Edge[S ~string] struct {
	Role domain.Role
	To   S
	From []S
}

type Config[S ~string] struct {
	Entity string

	// Flow is the forward path, first state initial and last state terminal.
	Flow      []S
	Cancelled S

	// Informational is a side state that never blocks forward moves. Empty
	// when the lifecycle has none.
	Informational S

	// InformationalFrom lists the statuses the side state may interrupt,
	// for every role including Override.
	InformationalFrom []S

	Edges []Edge[S]

	// Override may force any forward move or cancellation from a non-terminal
	// status, and the informational state from InformationalFrom.
	Override domain.Role

	// Parse maps a stored history status back to S.
	Parse func(string) (S, bool)
}

// Subject is the state of one entity as seen by the machine.
type Subject[S ~string] struct {
	Current   S
	History   []domain.StatusEntry
	OwnerID   string
	PartnerID string
}

type Decision[S ~string] struct {
	From S
	To   S

	// NoOp is set for an idempotent resubmit of the current status.
	NoOp bool

	// ClaimPartner is the delivery partner to record on the entity, if any.
	ClaimPartner string
}

type Machine[S ~string] struct {
	cfg     Config[S]
	targets map[domain.Role]map[S]bool
	edges   map[domain.Role]map[S][]S
}

func NewMachine[S ~string](cfg Config[S]) *Machine[S] {
	m := &Machine[S]{
		cfg:     cfg,
		targets: make(map[domain.Role]map[S]bool),
		edges:   make(map[domain.Role]map[S][]S),
	}
	for _, e := range cfg.Edges {
		if m.targets[e.Role] == nil {
			m.targets[e.Role] = make(map[S]bool)
			m.edges[e.Role] = make(map[S][]S)
		}
		m.targets[e.Role][e.To] = true
		m.edges[e.Role][e.To] = append(m.edges[e.Role][e.To], e.From...)
	}
	return m
}

func (m *Machine[S]) Known(s S) bool {
	if s == "" {
		return false
	}
	return s == m.cfg.Cancelled || s == m.cfg.Informational || slices.Contains(m.cfg.Flow, s)
}

func (m *Machine[S]) IsTerminal(s S) bool {
	return s == m.cfg.Cancelled || s == m.cfg.Flow[len(m.cfg.Flow)-1]
}

// Permitted reports whether role may ever request target.
func (m *Machine[S]) Permitted(role domain.Role, target S) bool {
	if role == m.cfg.Override {
		return m.Known(target)
	}
	return m.targets[role][target]
}

// Effective is the status forward moves are judged against: the current one,
// or the last non-informational entry when the entity sits in the
// informational state.
func (m *Machine[S]) Effective(subj Subject[S]) S {
	if m.cfg.Informational == "" || subj.Current != m.cfg.Informational {
		return subj.Current
	}
	for i := len(subj.History) - 1; i >= 0; i-- {
		s, ok := m.cfg.Parse(subj.History[i].Status)
		if ok && s != m.cfg.Informational {
			return s
		}
	}
	return m.cfg.Flow[0]
}

// Decide checks whether actor may move subj to target. Checks run in a fixed
// order: role permission, ownership, idempotent resubmit, terminal state,
// legal predecessor.
func (m *Machine[S]) Decide(subj Subject[S], target S, actor domain.Actor) (Decision[S], error) {
	d := Decision[S]{From: subj.Current, To: target}

	if !m.Known(target) {
		return d, ErrUnknownStatus
	}
	if !m.Permitted(actor.Role, target) {
		return d, m.denied(subj.Current, target, actor.Role, "")
	}

	switch actor.Role {
	case domain.RoleCustomer:
		if subj.OwnerID != actor.ID {
			return d, m.denied(subj.Current, target, actor.Role, "not the owner")
		}
	case domain.RoleDelivery:
		if subj.PartnerID != "" && subj.PartnerID != actor.ID {
			return d, m.denied(subj.Current, target, actor.Role, "assigned to another partner")
		}
	}

	if target == subj.Current {
		d.NoOp = true
		return d, nil
	}
	if m.IsTerminal(subj.Current) {
		return d, m.illegal(subj.Current, target, "status is final")
	}

	effective := m.Effective(subj)
	if !m.allowed(actor.Role, effective, target) {
		if target == effective {
			// resuming from the informational state
			if subj.Current == m.cfg.Informational {
				return m.claim(d, subj, actor), nil
			}
		}
		return d, m.illegal(subj.Current, target, "")
	}
	return m.claim(d, subj, actor), nil
}

func (m *Machine[S]) allowed(role domain.Role, from, to S) bool {
	if role == m.cfg.Override {
		switch {
		case to == m.cfg.Cancelled:
			return true
		case to == m.cfg.Informational:
			return slices.Contains(m.cfg.InformationalFrom, from)
		default:
			return slices.Index(m.cfg.Flow, to) > slices.Index(m.cfg.Flow, from)
		}
	}
	return slices.Contains(m.edges[role][to], from)
}

func (m *Machine[S]) claim(d Decision[S], subj Subject[S], actor domain.Actor) Decision[S] {
	if actor.Role == domain.RoleDelivery && subj.PartnerID == "" {
		d.ClaimPartner = actor.ID
	}
	return d
}

func (m *Machine[S]) denied(from, to S, role domain.Role, reason string) error {
	return &TransitionError{
		Kind:   KindNotAuthorized,
		Entity: m.cfg.Entity,
		From:   string(from),
		To:     string(to),
		Role:   role,
		Reason: reason,
	}
}

func (m *Machine[S]) illegal(from, to S, reason string) error {
	return &TransitionError{
		Kind:   KindIllegalTransition,
		Entity: m.cfg.Entity,
		From:   string(from),
		To:     string(to),
		Reason: reason,
	}
}
