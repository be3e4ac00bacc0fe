package handlers_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/adnan-tnd/flow-core/internal/api/dto"
	"github.com/adnan-tnd/flow-core/internal/attendance"
	"github.com/adnan-tnd/flow-core/internal/auth"
	"github.com/adnan-tnd/flow-core/internal/boards"
	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/adnan-tnd/flow-core/internal/directory"
	"github.com/adnan-tnd/flow-core/internal/finance"
	"github.com/adnan-tnd/flow-core/internal/leave"
	"github.com/adnan-tnd/flow-core/internal/notify"
	"github.com/adnan-tnd/flow-core/internal/policy"
	"github.com/adnan-tnd/flow-core/internal/projects"
	"github.com/adnan-tnd/flow-core/internal/reviews"
	"github.com/adnan-tnd/flow-core/internal/sprints"
	"github.com/adnan-tnd/flow-core/internal/testutil"
	"github.com/adnan-tnd/flow-core/pkg/crypto"
	"github.com/adnan-tnd/flow-core/pkg/util"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type testServices struct {
	auth       *auth.Service
	projects   *projects.Service
	sprints    *sprints.Service
	boards     *boards.Service
	attendance *attendance.Service
	leave      *leave.Service
	finance    *finance.Service
	reviews    *reviews.Service
}

// newTestServices wires every service against the setup's database, mail
// recorder and memory store.
func newTestServices(t *testing.T) (*testServices, *testutil.TestSetup) {
	t.Helper()
	tc := testutil.NewTestContext(t)
	logger := util.DiscardLogger()
	users := directory.NewService(tc.DB)
	links := notify.Links{BaseURL: tc.Config.App.BaseURL}

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	enc, err := crypto.NewEncryptor(key)
	require.NoError(t, err)

	boardSvc := boards.NewService(boards.Deps{
		DB:       tc.DB,
		Users:    users,
		Mail:     tc.Mail,
		Links:    links,
		Store:    tc.Store,
		Numberer: boards.AtomicIncrement{},
		Limits:   tc.Config.Storage,
		Logger:   logger,
	})

	return &testServices{
		auth:   auth.NewService(tc.DB, tc.JWTService, tc.Mail, links, logger),
		boards: boardSvc,
		projects: projects.NewService(projects.Deps{
			DB:     tc.DB,
			Users:  users,
			Boards: boardSvc,
			Mail:   tc.Mail,
			Links:  links,
			Logger: logger,
		}),
		sprints:    sprints.NewService(tc.DB),
		attendance: attendance.NewService(tc.DB, logger),
		leave:      leave.NewService(tc.DB, users, tc.Mail, tc.Config.Leave, logger),
		finance:    finance.NewService(tc.DB, users, enc, logger),
		reviews:    reviews.NewService(tc.DB, users),
	}, tc
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	return resp
}

func actorOf(u *models.User) policy.Actor {
	return policy.Actor{ID: u.ID, Role: u.Role}
}

func projectsCreateInput(name string, frontend ...uuid.UUID) projects.CreateInput {
	return projects.CreateInput{Name: name, FrontendDevs: frontend}
}
