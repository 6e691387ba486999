// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/learnquest/gamification-core/internal/application/observe"
	"github.com/learnquest/gamification-core/internal/domain/progress"
	"github.com/learnquest/gamification-core/internal/domain/shared"
	"github.com/learnquest/gamification-core/pkg/logger"
	"github.com/learnquest/gamification-core/pkg/tracing"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER PROFILE COMMAND
// Creates the empty gamification profile of a newly registered user.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterProfileCommand contains the data to create a profile.
type RegisterProfileCommand struct {
	UserID string

	// DisplayName is shown on the leaderboard and breaks XP ties.
	DisplayName string
}

// Validate validates the command.
func (c RegisterProfileCommand) Validate() error {
	return shared.ValidateUserID(c.UserID)
}

// RegisterProfileHandler handles the RegisterProfileCommand.
type RegisterProfileHandler struct {
	profiles  progress.Repository
	publisher shared.EventPublisher
	recorder  observe.Recorder
	log       *logger.Logger
	now       func() time.Time
}

// NewRegisterProfileHandler creates a new RegisterProfileHandler.
func NewRegisterProfileHandler(
	profiles progress.Repository,
	publisher shared.EventPublisher,
	recorder observe.Recorder,
	log *logger.Logger,
) *RegisterProfileHandler {
	return &RegisterProfileHandler{
		profiles:  profiles,
		publisher: orNopPublisher(publisher),
		recorder:  observe.OrNop(recorder),
		log:       orNopLogger(log).With(logger.Component("register_profile")),
		now:       time.Now,
	}
}

// Handle creates the profile. A second registration for the same user fails
// with shared.ErrProfileAlreadyExists.
func (h *RegisterProfileHandler) Handle(ctx context.Context, cmd RegisterProfileCommand) (_ *progress.Profile, err error) {
	ctx, span := tracing.Start(ctx, "command.RegisterProfile")
	start := time.Now()
	defer func() {
		h.recorder.ObserveOperation("register_profile", time.Since(start), err)
		tracing.End(span, err)
	}()

	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("register_profile: validation failed: %w", err)
	}

	name := strings.TrimSpace(cmd.DisplayName)
	if name == "" {
		name = cmd.UserID
	}

	profile, err := progress.NewProfile(cmd.UserID, name, h.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("register_profile: %w", err)
	}

	if err := h.profiles.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("register_profile: failed to create profile: %w", err)
	}

	h.log.Info("profile registered", logger.UserID(cmd.UserID))
	publishAll(h.publisher, h.log, []shared.Event{
		shared.NewProfileRegisteredEvent(profile.UserID, profile.DisplayName),
	})

	return profile, nil
}
