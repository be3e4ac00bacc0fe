package handlers_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/adnan-tnd/flow-core/internal/api/handlers"
	"github.com/adnan-tnd/flow-core/internal/api/middleware"
	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/adnan-tnd/flow-core/internal/testutil"
	"github.com/adnan-tnd/flow-core/pkg/util"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pngHeader = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"

type boardBody struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	Members      []uuid.UUID `json:"members"`
	InvitedUsers []uuid.UUID `json:"invited_users"`
}

func setupBoardTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	svc, tc := newTestServices(t)
	h := handlers.NewBoardHandler(svc.boards, tc.Config.Storage, util.DiscardLogger())

	r := chi.NewRouter()
	r.Route("/api/v1/trello-board", func(r chi.Router) {
		r.Get("/accept-invitation/{boardId}/{token}", h.AcceptInvitation)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tc.JWTService))
			r.Post("/create", h.Create)
			r.Post("/add-users/{boardId}", h.AddUsers)
			r.Get("/my", h.Mine)
			r.Get("/{boardId}", h.Get)
			r.Get("/{boardId}/members", h.Members)
			r.Get("/{boardId}/lists", h.Lists)
			r.Post("/create-list", h.CreateList)
			r.Patch("/list/{listId}", h.UpdateList)
			r.Delete("/list/{listId}", h.DeleteList)
			r.Post("/create-card", h.CreateCard)
			r.Get("/card/{cardId}", h.GetCard)
			r.Patch("/card/{cardId}", h.UpdateCard)
			r.Delete("/card/{cardId}", h.DeleteCard)
			r.Patch("/card/{cardId}/status", h.UpdateCardStatus)
			r.Post("/card/{cardId}/assign", h.AssignMembers)
			r.Post("/card/{cardId}/unassign", h.UnassignMembers)
			r.Post("/card/{cardId}/attachments", h.AddAttachments)
			r.Post("/card/{cardId}/attachments/remove", h.RemoveAttachments)
			r.Get("/card/{cardId}/comments", h.Comments)
			r.Post("/card/{cardId}/comments", h.AddComment)
			r.Patch("/comment/{commentId}", h.UpdateComment)
			r.Delete("/comment/{commentId}", h.DeleteComment)
		})
	})

	return r, tc
}

// do sends a JSON request and fails the test when the status differs.
func do(t *testing.T, router http.Handler, method, path, token string, body interface{}, wantStatus int, out interface{}) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.AuthenticatedRequest(t, method, path, body, token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, wantStatus, rr.Code, rr.Body.String())
	if out != nil {
		testutil.ParseJSONResponse(t, rr, out)
	}
	return rr
}

// boardWithList creates a board and a list as the setup CEO.
func boardWithList(t *testing.T, router http.Handler, tc *testutil.TestSetup) (boardBody, models.List) {
	t.Helper()
	var board boardBody
	do(t, router, "POST", "/api/v1/trello-board/create", tc.Token, map[string]string{"name": "Roadmap"}, http.StatusCreated, &board)

	var list models.List
	do(t, router, "POST", "/api/v1/trello-board/create-list", tc.Token,
		map[string]string{"boardId": board.ID.String(), "name": "Backlog"}, http.StatusCreated, &list)
	return board, list
}

func multipartFiles(t *testing.T, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for name, data := range files {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestBoardHandler_CreateAndInvite(t *testing.T) {
	router, tc := setupBoardTestRouter(t)
	defer tc.Cleanup()

	member, memberToken := tc.NewUser(t, models.RoleMember)

	t.Run("member cannot create boards", func(t *testing.T) {
		do(t, router, "POST", "/api/v1/trello-board/create", memberToken, map[string]string{"name": "Mine"}, http.StatusForbidden, nil)
	})

	var board boardBody
	do(t, router, "POST", "/api/v1/trello-board/create", tc.Token, map[string]string{"name": "Roadmap"}, http.StatusCreated, &board)
	assert.Equal(t, []uuid.UUID{tc.User.ID}, board.Members)

	t.Run("outsider cannot view", func(t *testing.T) {
		do(t, router, "GET", "/api/v1/trello-board/"+board.ID.String(), memberToken, nil, http.StatusForbidden, nil)
	})

	do(t, router, "POST", "/api/v1/trello-board/add-users/"+board.ID.String(), tc.Token,
		map[string][]string{"userIds": {member.ID.String()}}, http.StatusOK, nil)

	msgs := tc.Mail.To(member.Email)
	require.Len(t, msgs, 1)
	marker := "accept-invitation/" + board.ID.String() + "/"
	_, rest, found := strings.Cut(msgs[0].Body, marker)
	require.True(t, found, msgs[0].Body)
	token, _, _ := strings.Cut(rest, `"`)

	t.Run("wrong token", func(t *testing.T) {
		do(t, router, "GET", "/api/v1/trello-board/accept-invitation/"+board.ID.String()+"/nope", "", nil, http.StatusBadRequest, nil)
	})

	t.Run("accept without a session", func(t *testing.T) {
		var accepted boardBody
		do(t, router, "GET", "/api/v1/trello-board/accept-invitation/"+board.ID.String()+"/"+token, "", nil, http.StatusOK, &accepted)
		assert.ElementsMatch(t, []uuid.UUID{tc.User.ID, member.ID}, accepted.Members)
		assert.Empty(t, accepted.InvitedUsers)
	})

	t.Run("member now sees the board", func(t *testing.T) {
		var mine []boardBody
		do(t, router, "GET", "/api/v1/trello-board/my", memberToken, nil, http.StatusOK, &mine)
		require.Len(t, mine, 1)
		assert.Equal(t, board.ID, mine[0].ID)

		var members []models.User
		do(t, router, "GET", "/api/v1/trello-board/"+board.ID.String()+"/members", memberToken, nil, http.StatusOK, &members)
		assert.Len(t, members, 2)
	})

	t.Run("token is single use", func(t *testing.T) {
		do(t, router, "GET", "/api/v1/trello-board/accept-invitation/"+board.ID.String()+"/"+token, "", nil, http.StatusBadRequest, nil)
	})
}

func TestBoardHandler_Lists(t *testing.T) {
	router, tc := setupBoardTestRouter(t)
	defer tc.Cleanup()

	board, list := boardWithList(t, router, tc)

	var renamed models.List
	do(t, router, "PATCH", "/api/v1/trello-board/list/"+list.ID.String(), tc.Token, map[string]string{"name": "Todo"}, http.StatusOK, &renamed)
	assert.Equal(t, "Todo", renamed.Name)

	var lists []models.List
	do(t, router, "GET", "/api/v1/trello-board/"+board.ID.String()+"/lists", tc.Token, nil, http.StatusOK, &lists)
	require.Len(t, lists, 1)
	assert.Equal(t, "Todo", lists[0].Name)

	do(t, router, "POST", "/api/v1/trello-board/create-list", tc.Token, map[string]string{"boardId": "bad", "name": "X"}, http.StatusBadRequest, nil)
	do(t, router, "DELETE", "/api/v1/trello-board/list/"+list.ID.String(), tc.Token, nil, http.StatusOK, nil)
	do(t, router, "PATCH", "/api/v1/trello-board/list/"+list.ID.String(), tc.Token, map[string]string{"name": "Gone"}, http.StatusBadRequest, nil)
}

func TestBoardHandler_Cards(t *testing.T) {
	router, tc := setupBoardTestRouter(t)
	defer tc.Cleanup()

	_, list := boardWithList(t, router, tc)
	outsider, outsiderToken := tc.NewUser(t, models.RoleMember)

	var first, second models.Card
	do(t, router, "POST", "/api/v1/trello-board/create-card", tc.Token,
		map[string]interface{}{"listId": list.ID.String(), "name": "Login page", "dueDate": "2026-03-01"}, http.StatusCreated, &first)
	do(t, router, "POST", "/api/v1/trello-board/create-card", tc.Token,
		map[string]interface{}{"listId": list.ID.String(), "name": "Signup page"}, http.StatusCreated, &second)

	assert.Equal(t, 1, first.CardNumber)
	assert.Equal(t, 2, second.CardNumber)
	assert.Equal(t, models.CardStatusPending, first.Status)
	require.NotNil(t, first.DueDate)

	cardPath := "/api/v1/trello-board/card/" + first.ID.String()

	t.Run("assigning a non member fails", func(t *testing.T) {
		do(t, router, "POST", cardPath+"/assign", tc.Token, map[string][]string{"userIds": {outsider.ID.String()}}, http.StatusBadRequest, nil)
	})

	t.Run("outsider cannot read the card", func(t *testing.T) {
		do(t, router, "GET", cardPath, outsiderToken, nil, http.StatusForbidden, nil)
	})

	t.Run("assign and unassign", func(t *testing.T) {
		var card models.Card
		do(t, router, "POST", cardPath+"/assign", tc.Token, map[string][]string{"userIds": {tc.User.ID.String()}}, http.StatusOK, &card)
		assert.Equal(t, models.UUIDSet{tc.User.ID}, card.AssignedUsers)

		card = models.Card{}
		do(t, router, "POST", cardPath+"/unassign", tc.Token, map[string][]string{"userIds": {tc.User.ID.String()}}, http.StatusOK, &card)
		assert.Empty(t, card.AssignedUsers)
	})

	t.Run("status change", func(t *testing.T) {
		var card models.Card
		do(t, router, "PATCH", cardPath+"/status", tc.Token, map[string]string{"status": "in_progress"}, http.StatusOK, &card)
		assert.Equal(t, models.CardStatusInProgress, card.Status)

		do(t, router, "PATCH", cardPath+"/status", tc.Token, map[string]string{"status": "archived"}, http.StatusBadRequest, nil)
	})

	t.Run("update clears due date with null", func(t *testing.T) {
		req := httptest.NewRequest("PATCH", cardPath, strings.NewReader(`{"name":"Login v2","dueDate":null}`))
		req.Header.Set("Authorization", "Bearer "+tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var card models.Card
		testutil.ParseJSONResponse(t, rr, &card)
		assert.Equal(t, "Login v2", card.Name)
		assert.Nil(t, card.DueDate)
	})

	t.Run("get includes comments", func(t *testing.T) {
		var comment models.Comment
		do(t, router, "POST", cardPath+"/comments", tc.Token, map[string]string{"text": "Looks good"}, http.StatusCreated, &comment)

		var details struct {
			ID       uuid.UUID        `json:"id"`
			Comments []models.Comment `json:"comments"`
		}
		do(t, router, "GET", cardPath, tc.Token, nil, http.StatusOK, &details)
		assert.Equal(t, first.ID, details.ID)
		require.Len(t, details.Comments, 1)
		assert.Equal(t, "Looks good", details.Comments[0].Text)
	})

	t.Run("delete", func(t *testing.T) {
		do(t, router, "DELETE", "/api/v1/trello-board/card/"+second.ID.String(), tc.Token, nil, http.StatusOK, nil)
		do(t, router, "GET", "/api/v1/trello-board/card/"+second.ID.String(), tc.Token, nil, http.StatusBadRequest, nil)
	})

	t.Run("invalid card id", func(t *testing.T) {
		rr := do(t, router, "GET", "/api/v1/trello-board/card/123", tc.Token, nil, http.StatusBadRequest, nil)
		assert.Equal(t, "Invalid ID format", errorBody(t, rr).Error)
	})
}

func TestBoardHandler_Attachments(t *testing.T) {
	router, tc := setupBoardTestRouter(t)
	defer tc.Cleanup()

	_, list := boardWithList(t, router, tc)
	var card models.Card
	do(t, router, "POST", "/api/v1/trello-board/create-card", tc.Token,
		map[string]interface{}{"listId": list.ID.String(), "name": "Logo"}, http.StatusCreated, &card)
	path := "/api/v1/trello-board/card/" + card.ID.String() + "/attachments"

	upload := func(files map[string][]byte) *httptest.ResponseRecorder {
		body, contentType := multipartFiles(t, files)
		req := httptest.NewRequest("POST", path, body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	t.Run("non image rejected", func(t *testing.T) {
		rr := upload(map[string][]byte{"notes.txt": []byte("plain text")})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Empty(t, tc.Store.Objects)
	})

	t.Run("no files", func(t *testing.T) {
		rr := upload(map[string][]byte{})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	var uploaded models.Card
	t.Run("png uploaded", func(t *testing.T) {
		rr := upload(map[string][]byte{"logo.png": []byte(pngHeader)})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		testutil.ParseJSONResponse(t, rr, &uploaded)
		require.Len(t, uploaded.Attachments, 1)
		assert.Contains(t, tc.Store.Objects, uploaded.Attachments[0])
	})

	t.Run("remove unknown url fails", func(t *testing.T) {
		do(t, router, "POST", path+"/remove", tc.Token,
			map[string][]string{"attachmentUrls": {"https://elsewhere.test/x.png"}}, http.StatusBadRequest, nil)
	})

	t.Run("remove", func(t *testing.T) {
		require.Len(t, uploaded.Attachments, 1)
		var after models.Card
		do(t, router, "POST", path+"/remove", tc.Token,
			map[string][]string{"attachmentUrls": uploaded.Attachments}, http.StatusOK, &after)
		assert.Empty(t, after.Attachments)
		assert.Equal(t, uploaded.Attachments, tc.Store.Deleted)
	})
}

func TestBoardHandler_Comments(t *testing.T) {
	router, tc := setupBoardTestRouter(t)
	defer tc.Cleanup()

	board, list := boardWithList(t, router, tc)
	member, memberToken := tc.NewUser(t, models.RoleMember)
	do(t, router, "POST", "/api/v1/trello-board/add-users/"+board.ID.String(), tc.Token,
		map[string][]string{"userIds": {member.ID.String()}}, http.StatusOK, nil)
	_, rest, _ := strings.Cut(tc.Mail.To(member.Email)[0].Body, "accept-invitation/"+board.ID.String()+"/")
	token, _, _ := strings.Cut(rest, `"`)
	do(t, router, "GET", "/api/v1/trello-board/accept-invitation/"+board.ID.String()+"/"+token, "", nil, http.StatusOK, nil)

	var card models.Card
	do(t, router, "POST", "/api/v1/trello-board/create-card", tc.Token,
		map[string]interface{}{"listId": list.ID.String(), "name": "Review"}, http.StatusCreated, &card)
	commentsPath := "/api/v1/trello-board/card/" + card.ID.String() + "/comments"

	var ceoComment, memberComment models.Comment
	do(t, router, "POST", commentsPath, tc.Token, map[string]string{"text": "From the CEO"}, http.StatusCreated, &ceoComment)
	do(t, router, "POST", commentsPath, memberToken, map[string]string{"text": "From a member"}, http.StatusCreated, &memberComment)
	do(t, router, "POST", commentsPath, memberToken, map[string]string{"text": "   "}, http.StatusBadRequest, nil)

	var all []models.Comment
	do(t, router, "GET", commentsPath, memberToken, nil, http.StatusOK, &all)
	require.Len(t, all, 2)

	t.Run("member cannot edit someone else's comment", func(t *testing.T) {
		do(t, router, "PATCH", "/api/v1/trello-board/comment/"+ceoComment.ID.String(), memberToken,
			map[string]string{"text": "edited"}, http.StatusForbidden, nil)
	})

	t.Run("author edits own comment", func(t *testing.T) {
		var edited models.Comment
		do(t, router, "PATCH", "/api/v1/trello-board/comment/"+memberComment.ID.String(), memberToken,
			map[string]string{"text": "edited"}, http.StatusOK, &edited)
		assert.Equal(t, "edited", edited.Text)
	})

	t.Run("ceo deletes any comment", func(t *testing.T) {
		do(t, router, "DELETE", "/api/v1/trello-board/comment/"+memberComment.ID.String(), tc.Token, nil, http.StatusOK, nil)
	})
}
