package door

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/retroline/retroline/internal/database/testutil"
	"github.com/retroline/retroline/internal/mail"
	"github.com/retroline/retroline/internal/models"
)

func runMailDoor(t *testing.T, env *Env, script []string) string {
	t.Helper()

	in := make(chan string, len(script))
	out := make(chan string, 256)
	for _, s := range script {
		in <- s
	}

	require.NoError(t, NewMailDoor().Run(context.Background(), NewIO(in, out), env))

	close(out)
	var sb strings.Builder
	for s := range out {
		sb.WriteString(s)
	}
	return sb.String()
}

func TestMailDoorEmptyMailbox(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	env := &Env{
		User: &models.User{BaseModel: models.BaseModel{ID: uuid.NewString()}, Handle: "alice"},
		Mail: mail.NewService(db),
	}

	output := runMailDoor(t, env, []string{"q\r"})
	require.Contains(t, output, "Your mailbox is empty.")
}

func TestMailDoorReadMarksRead(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := mail.NewService(db)
	userID := uuid.NewString()

	_, err := svc.Send(context.Background(), uuid.NewString(), "bob", userID, "greetings", "hello alice")
	require.NoError(t, err)

	env := &Env{
		User: &models.User{BaseModel: models.BaseModel{ID: userID}, Handle: "alice"},
		Mail: svc,
		Rows: 24,
		Cols: 80,
	}

	// read message 1, any key back to index, then quit
	output := runMailDoor(t, env, []string{"1\r", " ", "q\r"})
	require.Contains(t, output, "greetings")
	require.Contains(t, output, "From:    bob")
	require.Contains(t, output, "hello alice")

	count, err := svc.UnreadCount(context.Background(), userID)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestMailDoorLongBodyPages(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := mail.NewService(db)
	userID := uuid.NewString()

	body := strings.TrimSuffix(strings.Repeat("line\n", 40), "\n")
	_, err := svc.Send(context.Background(), uuid.NewString(), "bob", userID, "long one", body)
	require.NoError(t, err)

	env := &Env{
		User: &models.User{BaseModel: models.BaseModel{ID: userID}, Handle: "alice"},
		Mail: svc,
		Rows: 12,
		Cols: 80,
	}

	// 40 lines at 10 per page needs [More] presses between pages
	output := runMailDoor(t, env, []string{"1\r", " ", " ", " ", " ", "q\r"})
	require.Contains(t, output, "[More]")
}

func TestMailDoorBadSelection(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	env := &Env{
		User: &models.User{BaseModel: models.BaseModel{ID: uuid.NewString()}, Handle: "alice"},
		Mail: mail.NewService(db),
	}

	output := runMailDoor(t, env, []string{"99\r", "q\r"})
	require.Contains(t, output, "No such message.")
}
