package engagement

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestProject(t *testing.T) Project {
	t.Helper()
	project, err := NewProject("authority-1", "arcade", true, testNow)
	if err != nil {
		t.Fatalf("new project: %v", err)
	}
	return project
}

func registerTestUser(t *testing.T, p Project) (Project, User) {
	t.Helper()
	p, u, _, err := p.RegisterUser("wallet-1", testNow)
	if err != nil {
		t.Fatalf("register user: %v", err)
	}
	return p, u
}

func TestNewProjectKeyBound(t *testing.T) {
	t.Parallel()

	if _, err := NewProject("authority-1", strings.Repeat("k", MaxProjectKeyLength+1), true, testNow); !errors.Is(err, ErrProjectKeyTooLong) {
		t.Fatalf("err = %v, want ErrProjectKeyTooLong", err)
	}
	if _, err := NewProject("authority-1", strings.Repeat("k", MaxProjectKeyLength), true, testNow); err != nil {
		t.Fatalf("32-char key: %v", err)
	}
}

func TestRegisterUserBumpsProjectCount(t *testing.T) {
	t.Parallel()

	project := newTestProject(t)
	project, user := registerTestUser(t, project)

	if project.TotalUsers != 1 {
		t.Fatalf("total users = %d, want 1", project.TotalUsers)
	}
	if user.ProjectKey != "arcade" || user.Wallet != "wallet-1" {
		t.Fatalf("user = %+v, want arcade/wallet-1", user)
	}
	if user.DailyLogins != 0 || user.Quests != 0 || user.Referrals != 0 || user.TotalEarned != 0 {
		t.Fatalf("expected zeroed counters, got %+v", user)
	}
}

func TestRegisterUserEmitsRecord(t *testing.T) {
	t.Parallel()

	project := newTestProject(t)
	_, _, record, err := project.RegisterUser("wallet-1", testNow)
	if err != nil {
		t.Fatalf("register user: %v", err)
	}
	if record.Type != EventUserRegistered || record.Wallet != "wallet-1" || record.ProjectKey != "arcade" {
		t.Fatalf("record = %+v, want user_registered for arcade/wallet-1", record)
	}
	if record.Count != 1 {
		t.Fatalf("record count = %d, want 1", record.Count)
	}
}

func TestRecordDailyLoginCooldown(t *testing.T) {
	t.Parallel()

	project := newTestProject(t)
	project, user := registerTestUser(t, project)

	project, user, record, err := RecordDailyLogin(project, user, testNow)
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	if user.DailyLogins != 1 || record.Count != 1 || record.Type != EventDailyLogin {
		t.Fatalf("record = %+v, user logins = %d, want 1", record, user.DailyLogins)
	}
	if project.TotalEvents != 1 {
		t.Fatalf("total events = %d, want 1", project.TotalEvents)
	}

	// A second login inside the 24h window is rejected.
	_, _, _, err = RecordDailyLogin(project, user, testNow.Add(23*time.Hour))
	if !errors.Is(err, ErrAlreadyLoggedInToday) {
		t.Fatalf("err = %v, want ErrAlreadyLoggedInToday", err)
	}

	// At exactly the cooldown boundary the login counts.
	_, user, _, err = RecordDailyLogin(project, user, testNow.Add(LoginCooldown))
	if err != nil {
		t.Fatalf("boundary login: %v", err)
	}
	if user.DailyLogins != 2 {
		t.Fatalf("logins = %d, want 2", user.DailyLogins)
	}
}

func TestRecordQuestBounds(t *testing.T) {
	t.Parallel()

	project := newTestProject(t)
	project, user := registerTestUser(t, project)

	_, _, _, err := RecordQuest(project, user, strings.Repeat("q", MaxQuestIDLength+1), testNow)
	if !errors.Is(err, ErrQuestIDTooLong) {
		t.Fatalf("err = %v, want ErrQuestIDTooLong", err)
	}

	project, user, record, err := RecordQuest(project, user, "quest-7", testNow)
	if err != nil {
		t.Fatalf("record quest: %v", err)
	}
	if user.Quests != 1 || record.Type != EventQuest || record.Count != 1 {
		t.Fatalf("quest record = %+v, quests = %d", record, user.Quests)
	}
	if project.TotalEvents != 1 {
		t.Fatalf("total events = %d, want 1", project.TotalEvents)
	}
}

func TestRecordReferral(t *testing.T) {
	t.Parallel()

	project := newTestProject(t)
	project, user := registerTestUser(t, project)

	_, user, record, err := RecordReferral(project, user, testNow)
	if err != nil {
		t.Fatalf("record referral: %v", err)
	}
	if user.Referrals != 1 || record.Type != EventReferral {
		t.Fatalf("referral record = %+v, referrals = %d", record, user.Referrals)
	}
}

func TestMembershipEnforced(t *testing.T) {
	t.Parallel()

	project := newTestProject(t)
	other, err := NewProject("authority-1", "other", true, testNow)
	if err != nil {
		t.Fatalf("new project: %v", err)
	}
	_, stranger, _, err := other.RegisterUser("wallet-9", testNow)
	if err != nil {
		t.Fatalf("register user: %v", err)
	}

	if _, _, _, err := RecordDailyLogin(project, stranger, testNow); !errors.Is(err, ErrInvalidProject) {
		t.Fatalf("login err = %v, want ErrInvalidProject", err)
	}
	if _, _, _, err := RecordQuest(project, stranger, "q", testNow); !errors.Is(err, ErrInvalidProject) {
		t.Fatalf("quest err = %v, want ErrInvalidProject", err)
	}
}

func TestAddEarnedRequiresAuthorityAndSaturates(t *testing.T) {
	t.Parallel()

	project := newTestProject(t)
	project, user := registerTestUser(t, project)

	if _, err := project.AddEarned("intruder", user, 10, testNow); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}

	user.TotalEarned = ^uint64(0) - 5
	user, err := project.AddEarned("authority-1", user, 10, testNow)
	if err != nil {
		t.Fatalf("add earned: %v", err)
	}
	if user.TotalEarned != ^uint64(0) {
		t.Fatalf("earned = %d, want saturation at max", user.TotalEarned)
	}
}

func TestSetBoostEnabled(t *testing.T) {
	t.Parallel()

	project := newTestProject(t)
	project, err := project.SetBoostEnabled("authority-1", false, testNow)
	if err != nil {
		t.Fatalf("set boost: %v", err)
	}
	if project.BoostEnabled {
		t.Fatal("expected boost disabled")
	}
	if _, err := project.SetBoostEnabled("intruder", true, testNow); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}
