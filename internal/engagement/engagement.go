// Package engagement implements the event ledger that justifies off-chain
// mint decisions: per-project registration and per-user login, quest, and
// referral counters. It is a separate bounded context from the supply state
// machine; the supply core never reads these counters, it only trusts the
// mint instructions the authority derives from them.
package engagement

import (
	"fmt"
	"strings"
	"time"
)

const (
	// MaxProjectKeyLength bounds project keys.
	MaxProjectKeyLength = 32
	// MaxQuestIDLength bounds quest identifiers.
	MaxQuestIDLength = 64
	// LoginCooldown is the minimum gap between credited daily logins.
	LoginCooldown = 24 * time.Hour
)

// Project aggregates engagement for one integrating product.
type Project struct {
	ProjectKey   string
	Authority    string
	BoostEnabled bool
	TotalUsers   uint64
	TotalEvents  uint64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// User tracks one wallet's engagement counters within a project.
type User struct {
	ProjectKey  string
	Wallet      string
	DailyLogins uint64
	Quests      uint64
	Referrals   uint64
	TotalEarned uint64
	LastLogin   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EventType labels the engagement events.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventDailyLogin     EventType = "daily_login"
	EventQuest          EventType = "quest"
	EventReferral       EventType = "referral"
)

// EventRecord is the append-only notification emitted for a recorded event.
// Count carries the user's counter value after the event.
type EventRecord struct {
	ID         string
	ProjectKey string
	Wallet     string
	Type       EventType
	Count      uint64
	Timestamp  time.Time
}

// NewProject creates an engagement project owned by the given authority.
func NewProject(authority, projectKey string, boostEnabled bool, now time.Time) (Project, error) {
	authority = strings.TrimSpace(authority)
	projectKey = strings.TrimSpace(projectKey)
	if authority == "" {
		return Project{}, fmt.Errorf("authority is required")
	}
	if projectKey == "" {
		return Project{}, fmt.Errorf("project key is required")
	}
	if len(projectKey) > MaxProjectKeyLength {
		return Project{}, ErrProjectKeyTooLong
	}
	now = now.UTC()
	return Project{
		ProjectKey:   projectKey,
		Authority:    authority,
		BoostEnabled: boostEnabled,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// RegisterUser enrolls a wallet and bumps the project user count. The
// emitted record announces the registration; it does not count toward
// TotalEvents.
func (p Project) RegisterUser(wallet string, now time.Time) (Project, User, EventRecord, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return Project{}, User{}, EventRecord{}, fmt.Errorf("wallet is required")
	}
	now = now.UTC()
	p.TotalUsers = saturatingAdd(p.TotalUsers, 1)
	p.UpdatedAt = now
	u := User{
		ProjectKey: p.ProjectKey,
		Wallet:     wallet,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return p, u, newEventRecord(p, u, EventUserRegistered, 1, now), nil
}

// RecordDailyLogin credits one login if the cooldown has elapsed.
func RecordDailyLogin(p Project, u User, now time.Time) (Project, User, EventRecord, error) {
	if err := checkMembership(p, u); err != nil {
		return Project{}, User{}, EventRecord{}, err
	}
	now = now.UTC()
	if !u.LastLogin.IsZero() && now.Sub(u.LastLogin) < LoginCooldown {
		return Project{}, User{}, EventRecord{}, ErrAlreadyLoggedInToday
	}

	u.DailyLogins = saturatingAdd(u.DailyLogins, 1)
	u.LastLogin = now
	u.UpdatedAt = now
	p.TotalEvents = saturatingAdd(p.TotalEvents, 1)
	p.UpdatedAt = now
	return p, u, newEventRecord(p, u, EventDailyLogin, u.DailyLogins, now), nil
}

// RecordQuest credits one quest completion.
func RecordQuest(p Project, u User, questID string, now time.Time) (Project, User, EventRecord, error) {
	if err := checkMembership(p, u); err != nil {
		return Project{}, User{}, EventRecord{}, err
	}
	if len(questID) > MaxQuestIDLength {
		return Project{}, User{}, EventRecord{}, ErrQuestIDTooLong
	}
	now = now.UTC()
	u.Quests = saturatingAdd(u.Quests, 1)
	u.UpdatedAt = now
	p.TotalEvents = saturatingAdd(p.TotalEvents, 1)
	p.UpdatedAt = now
	return p, u, newEventRecord(p, u, EventQuest, u.Quests, now), nil
}

// RecordReferral credits one referral.
func RecordReferral(p Project, u User, now time.Time) (Project, User, EventRecord, error) {
	if err := checkMembership(p, u); err != nil {
		return Project{}, User{}, EventRecord{}, err
	}
	now = now.UTC()
	u.Referrals = saturatingAdd(u.Referrals, 1)
	u.UpdatedAt = now
	p.TotalEvents = saturatingAdd(p.TotalEvents, 1)
	p.UpdatedAt = now
	return p, u, newEventRecord(p, u, EventReferral, u.Referrals, now), nil
}

// AddEarned records credits distributed to the user. Called by the backend
// after a mint; the counter saturates instead of wrapping.
func (p Project) AddEarned(caller string, u User, amount uint64, now time.Time) (User, error) {
	if err := p.requireAuthority(caller); err != nil {
		return User{}, err
	}
	if err := checkMembership(p, u); err != nil {
		return User{}, err
	}
	u.TotalEarned = saturatingAdd(u.TotalEarned, amount)
	u.UpdatedAt = now.UTC()
	return u, nil
}

// SetBoostEnabled toggles TGEM+ participation for the project.
func (p Project) SetBoostEnabled(caller string, enabled bool, now time.Time) (Project, error) {
	if err := p.requireAuthority(caller); err != nil {
		return Project{}, err
	}
	p.BoostEnabled = enabled
	p.UpdatedAt = now.UTC()
	return p, nil
}

func (p Project) requireAuthority(caller string) error {
	if strings.TrimSpace(caller) == "" || caller != p.Authority {
		return ErrUnauthorized
	}
	return nil
}

func checkMembership(p Project, u User) error {
	if u.ProjectKey != p.ProjectKey {
		return ErrInvalidProject
	}
	return nil
}

func newEventRecord(p Project, u User, eventType EventType, count uint64, now time.Time) EventRecord {
	return EventRecord{
		ProjectKey: p.ProjectKey,
		Wallet:     u.Wallet,
		Type:       eventType,
		Count:      count,
		Timestamp:  now,
	}
}

func saturatingAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return ^uint64(0)
	}
	return sum
}
