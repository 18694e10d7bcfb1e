package leads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/optimwalls/Optimwalls/internal/shared"
)

// Service owns the lead lifecycle: creation, patching, scoring and the
// one-way conversion into a client.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a lead Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Get returns one lead by id.
func (s *Service) Get(ctx context.Context, id int64) (*Lead, error) {
	return s.repo.Get(ctx, id)
}

// List returns a filtered, paginated page of leads with the total count.
func (s *Service) List(ctx context.Context, req ListLeadsRequest) ([]Lead, int, error) {
	if req.Status != nil && !ValidStatus(*req.Status) {
		return nil, 0, fmt.Errorf("%w: unknown status %q", shared.ErrValidation, *req.Status)
	}
	return s.repo.List(ctx, req)
}

// Create inserts a new lead. Status is forced to New regardless of input,
// the score is computed server-side, and an unassigned lead defaults to the
// creating user. A "creation" activity is written in the same transaction.
func (s *Service) Create(ctx context.Context, actor shared.Identity, req CreateLeadRequest) (*Lead, error) {
	lead := Lead{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Location:    req.Location,
		Status:      StatusNew,
		Source:      req.Source,
		AssignedTo:  req.AssignedTo,
		Budget:      req.Budget,
		ProjectType: req.ProjectType,
		Notes:       req.Notes,
	}
	if lead.AssignedTo == nil {
		actorID := actor.ID
		lead.AssignedTo = &actorID
	}
	lead.Score = scoreOf(&lead)

	var created *Lead
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		var err error
		created, err = tx.Create(ctx, lead)
		if err != nil {
			return err
		}
		_, err = tx.InsertActivity(ctx, Activity{
			LeadID: created.ID,
			UserID: actor.ID,
			Type:   ActivityCreation,
			Notes:  strPtr(fmt.Sprintf("Lead %q created", created.Name)),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update applies a partial patch. The score is recomputed from the merged
// view so it can never go stale. A status change emits a "status_change"
// activity, and a transition into Converted creates the client row in the
// same transaction. Conversion is one-way: a lead already converted cannot
// change status again.
func (s *Service) Update(ctx context.Context, actor shared.Identity, id int64, req UpdateLeadRequest) (*Lead, error) {
	if req.Status != nil && !ValidStatus(*req.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", shared.ErrValidation, *req.Status)
	}

	var updated *Lead
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		current, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}

		prevStatus := current.Status
		merged := *current
		applyPatch(&merged, req)

		statusChanged := merged.Status != prevStatus
		if statusChanged && prevStatus == StatusConverted {
			return fmt.Errorf("%w: converted leads are terminal", shared.ErrConflict)
		}

		merged.Score = scoreOf(&merged)
		updated, err = tx.Update(ctx, merged)
		if err != nil {
			return err
		}

		if statusChanged {
			_, err = tx.InsertActivity(ctx, Activity{
				LeadID: id,
				UserID: actor.ID,
				Type:   ActivityStatusChange,
				Notes:  strPtr(fmt.Sprintf("Status changed from %q to %q", prevStatus, merged.Status)),
			})
			if err != nil {
				return err
			}
			if merged.Status == StatusConverted {
				if _, err := tx.CreateClientFromLead(ctx, updated); err != nil {
					if errors.Is(err, shared.ErrConflict) {
						return fmt.Errorf("%w: lead already converted", shared.ErrConflict)
					}
					return err
				}
				s.logger.Info("lead converted", "lead_id", id, "actor_id", actor.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ScoreLead returns the lead's stored score alongside the recomputed value.
// The two match unless scoring weights changed since the last write.
func (s *Service) ScoreLead(ctx context.Context, id int64) (*Lead, int, error) {
	lead, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	return lead, scoreOf(lead), nil
}

// AddActivity records an interaction against an existing lead.
func (s *Service) AddActivity(ctx context.Context, actor shared.Identity, leadID int64, req AddActivityRequest) (*Activity, error) {
	if req.Type == ActivityCreation || req.Type == ActivityStatusChange {
		return nil, fmt.Errorf("%w: activity type %q is system-generated", shared.ErrValidation, req.Type)
	}
	if _, err := s.repo.Get(ctx, leadID); err != nil {
		return nil, err
	}
	return s.repo.InsertActivity(ctx, Activity{
		LeadID:       leadID,
		UserID:       actor.ID,
		Type:         req.Type,
		Notes:        req.Notes,
		ScheduledFor: req.ScheduledFor,
	})
}

func applyPatch(lead *Lead, req UpdateLeadRequest) {
	if req.Name != nil {
		lead.Name = *req.Name
	}
	if req.Email != nil {
		lead.Email = req.Email
	}
	if req.Phone != nil {
		lead.Phone = req.Phone
	}
	if req.Location != nil {
		lead.Location = req.Location
	}
	if req.Source != nil {
		lead.Source = req.Source
	}
	if req.Status != nil {
		lead.Status = *req.Status
	}
	if req.Budget != nil {
		lead.Budget = req.Budget
	}
	if req.ProjectType != nil {
		lead.ProjectType = req.ProjectType
	}
	if req.Notes != nil {
		lead.Notes = req.Notes
	}
	if req.AssignedTo != nil {
		lead.AssignedTo = req.AssignedTo
	}
}

func strPtr(s string) *string { return &s }
