package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types emitted after a write transaction commits.
const (
	EventProfileRegistered EventType = "progress.profile_registered"
	EventStreakUpdated     EventType = "progress.streak_updated"
	EventXPAwarded         EventType = "progress.xp_awarded"
	EventLevelUp           EventType = "progress.level_up"
	EventBadgeUnlocked     EventType = "badge.unlocked"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// ProfileRegisteredEvent is emitted when a gamification profile is created.
type ProfileRegisteredEvent struct {
	BaseEvent
	DisplayName string `json:"display_name"`
}

// Payload implements Event interface.
func (e ProfileRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"display_name": e.DisplayName,
	}
}

// NewProfileRegisteredEvent creates a new ProfileRegisteredEvent.
func NewProfileRegisteredEvent(userID, displayName string) ProfileRegisteredEvent {
	return ProfileRegisteredEvent{
		BaseEvent:   NewBaseEvent(EventProfileRegistered, userID),
		DisplayName: displayName,
	}
}

// StreakUpdatedEvent is emitted when a recorded activity changed the streak.
type StreakUpdatedEvent struct {
	BaseEvent
	Streak       int       `json:"streak"`
	BestStreak   int       `json:"best_streak"`
	ActivityDate time.Time `json:"activity_date"`
	Reset        bool      `json:"reset"`
}

// Payload implements Event interface.
func (e StreakUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"streak":        e.Streak,
		"best_streak":   e.BestStreak,
		"activity_date": e.ActivityDate.Format("2006-01-02"),
		"reset":         e.Reset,
	}
}

// NewStreakUpdatedEvent creates a new StreakUpdatedEvent.
func NewStreakUpdatedEvent(userID string, streak, best int, date time.Time, reset bool) StreakUpdatedEvent {
	return StreakUpdatedEvent{
		BaseEvent:    NewBaseEvent(EventStreakUpdated, userID),
		Streak:       streak,
		BestStreak:   best,
		ActivityDate: date,
		Reset:        reset,
	}
}

// XPAwardedEvent is emitted when a quiz result added XP to a profile.
type XPAwardedEvent struct {
	BaseEvent
	QuizID   string `json:"quiz_id"`
	Delta    int64  `json:"delta"`
	NewTotal int64  `json:"new_total"`
	Attempt  int    `json:"attempt"`
}

// Payload implements Event interface.
func (e XPAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"quiz_id":   e.QuizID,
		"delta":     e.Delta,
		"new_total": e.NewTotal,
		"attempt":   e.Attempt,
	}
}

// NewXPAwardedEvent creates a new XPAwardedEvent.
func NewXPAwardedEvent(userID, quizID string, delta, newTotal int64, attempt int) XPAwardedEvent {
	return XPAwardedEvent{
		BaseEvent: NewBaseEvent(EventXPAwarded, userID),
		QuizID:    quizID,
		Delta:     delta,
		NewTotal:  newTotal,
		Attempt:   attempt,
	}
}

// LevelUpEvent is emitted when XP growth crossed one or more level thresholds.
type LevelUpEvent struct {
	BaseEvent
	OldLevel int   `json:"old_level"`
	NewLevel int   `json:"new_level"`
	TotalXP  int64 `json:"total_xp"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
		"total_xp":  e.TotalXP,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(userID string, oldLevel, newLevel int, totalXP int64) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, userID),
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		TotalXP:   totalXP,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Badge Events
// ═══════════════════════════════════════════════════════════════════════════

// BadgeUnlockedEvent is emitted once per newly granted badge.
type BadgeUnlockedEvent struct {
	BaseEvent
	BadgeID    string    `json:"badge_id"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// Payload implements Event interface.
func (e BadgeUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"badge_id":    e.BadgeID,
		"unlocked_at": e.UnlockedAt,
	}
}

// NewBadgeUnlockedEvent creates a new BadgeUnlockedEvent.
func NewBadgeUnlockedEvent(userID, badgeID string, at time.Time) BadgeUnlockedEvent {
	return BadgeUnlockedEvent{
		BaseEvent:  NewBaseEvent(EventBadgeUnlocked, userID),
		BadgeID:    badgeID,
		UnlockedAt: at,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Interfaces
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(Event) error { return nil }
