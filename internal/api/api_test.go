package api

import (
	"alcyxob/fitcoach/internal/metrics"
	"alcyxob/fitcoach/internal/repository/memory"
	"alcyxob/fitcoach/internal/service"
	"alcyxob/fitcoach/internal/storage"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// stubStorage signs nothing; URLs are predictable strings.
type stubStorage struct{}

func (stubStorage) GeneratePresignedUploadURL(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://storage.test/put/" + key, nil
}

func (stubStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://storage.test/get/" + key, nil
}

func (stubStorage) StatObject(context.Context, string) (*storage.ObjectMetadata, error) {
	return nil, storage.ErrObjectNotFound
}

func (stubStorage) DeleteObject(context.Context, string) error { return nil }

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	m := metrics.New()
	coaches := service.NewCoachService(store.Users(), store)
	assignments := service.NewAssignmentService(store.Users(), store.Templates(), store.Assignments(), store)
	svc := Services{
		Auth:       service.NewAuthService(store.Users(), testSecret, time.Hour),
		Coach:      coaches,
		Workout:    service.NewWorkoutService(store.Workouts()),
		Task:       service.NewTaskService(store.Users(), store.Workouts(), store.Tasks(), store.Submissions(), store.Uploads(), store, m),
		Template:   service.NewTemplateService(store.Templates(), store.Assignments(), store.Workouts()),
		Assignment: assignments,
		Recommendation: service.NewRecommendationService(
			store.Users(), store.Templates(), store.Recommendations(), coaches, assignments, store, m),
		Media: service.NewMediaService(store.Tasks(), store.Uploads(), stubStorage{}),
	}

	router := gin.New()
	SetupRoutes(router, testSecret, svc, m, "/metrics")
	return &testServer{t: t, router: router}
}

// do sends body as JSON and decodes the response into out when out is non-nil.
func (s *testServer) do(method, path, token string, body any, out any) int {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if out != nil {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w.Code
}

// signup registers and logs in, returning the token and user ID.
func (s *testServer) signup(email, role string) (string, string) {
	s.t.Helper()
	code := s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": email, "email": email, "password": "password123", "role": role,
	}, nil)
	require.Equal(s.t, http.StatusCreated, code)

	var login LoginResponse
	code = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": "password123"}, &login)
	require.Equal(s.t, http.StatusOK, code)
	require.NotEmpty(s.t, login.Token)
	return login.Token, login.User.ID
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	token, id := s.signup("coach@example.com", "coach")

	var me map[string]string
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/me", token, nil, &me))
	assert.Equal(t, id, me["userId"])
	assert.Equal(t, "coach", me["role"])

	var errBody map[string]string
	code := s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": "x", "email": "coach@example.com", "password": "password123", "role": "coach",
	}, &errBody)
	assert.Equal(t, http.StatusConflict, code)
	assert.NotEmpty(t, errBody["error"])

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "coach@example.com", "password": "wrong-password",
	}, nil))
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": "x", "email": "not-an-email", "password": "password123", "role": "coach",
	}, nil))
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"garbage token", "Bearer abc.def.ghi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestTaskEndpoints(t *testing.T) {
	s := newTestServer(t)
	coachToken, _ := s.signup("coach@example.com", "coach")
	traineeToken, traineeID := s.signup("trainee@example.com", "trainee")

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/v1/coach/trainees", coachToken,
		gin.H{"traineeEmail": "trainee@example.com"}, nil))

	newTask := gin.H{
		"traineeId":  traineeID,
		"title":      "Weekly check-in",
		"taskType":   "custom",
		"taskConfig": gin.H{"custom": gin.H{"instructions": "How did it go?"}},
	}

	// Only coaches create tasks.
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/v1/tasks", traineeToken, newTask, nil))

	var created service.CreateTaskResult
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/tasks", coachToken, newTask, &created))
	taskID := created.Task.ID.Hex()
	assert.Equal(t, 20, created.Task.Points)

	var page service.TaskPage
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/tasks?status=pending", traineeToken, nil, &page))
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, int64(1), page.Total)

	submission := gin.H{"submissionData": gin.H{"custom": gin.H{"response": "Solid week"}}}
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/v1/tasks/"+taskID+"/submissions", coachToken, submission, nil))
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/tasks/"+taskID+"/submissions", traineeToken, submission, nil))

	var view service.TaskView
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/tasks/"+taskID, coachToken, nil, &view))
	assert.Equal(t, "completed", string(view.EffectiveStatus))
	assert.Equal(t, int64(1), view.SubmissionCount)

	// A second submission goes over the default limit of one.
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/v1/tasks/"+taskID+"/submissions", traineeToken, submission, nil))

	var stats service.TaskStats
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/tasks/stats", traineeToken, nil, &stats))
	assert.Equal(t, int64(1), stats.Total)
	assert.Equal(t, 100.0, stats.CompletionRate)

	var bulk service.BulkActionResult
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/v1/tasks/bulk", coachToken,
		gin.H{"taskIds": []string{taskID, "nope"}, "action": "cancel"}, &bulk))
	assert.Equal(t, 0, bulk.Success)
	assert.Equal(t, 2, bulk.Failed)
}

func TestTaskEndpoints_ErrorMapping(t *testing.T) {
	s := newTestServer(t)
	coachToken, _ := s.signup("coach@example.com", "coach")
	_, strangerID := s.signup("stranger@example.com", "trainee")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"malformed id", http.MethodGet, "/api/v1/tasks/not-an-id", nil, http.StatusBadRequest},
		{"unknown task", http.MethodGet, "/api/v1/tasks/" + fmt.Sprintf("%024x", 1), nil, http.StatusNotFound},
		{"bad page", http.MethodGet, "/api/v1/tasks?page=x", nil, http.StatusBadRequest},
		{"empty bulk", http.MethodPost, "/api/v1/tasks/bulk", gin.H{"taskIds": []string{}, "action": "cancel"}, http.StatusBadRequest},
		{"unmanaged trainee", http.MethodPost, "/api/v1/tasks", gin.H{
			"traineeId":  strangerID,
			"title":      "Hello",
			"taskType":   "custom",
			"taskConfig": gin.H{"custom": gin.H{"instructions": "x"}},
		}, http.StatusForbidden},
		{"admin only", http.MethodPost, "/api/v1/admin/tasks/mark-overdue", nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.do(tt.method, tt.path, coachToken, tt.body, nil))
		})
	}
}

func TestMarkOverdue_Admin(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.signup("admin@example.com", "admin")

	var out map[string]int64
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/v1/admin/tasks/mark-overdue", adminToken, nil, &out))
	assert.Equal(t, int64(0), out["updated"])
}

func TestTemplateAndRecommendationEndpoints(t *testing.T) {
	s := newTestServer(t)
	coachToken, _ := s.signup("coach@example.com", "coach")
	traineeToken, traineeID := s.signup("trainee@example.com", "trainee")
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/v1/coach/trainees", coachToken,
		gin.H{"traineeEmail": "trainee@example.com"}, nil))

	// No profile yet.
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost,
		"/api/v1/coach/trainees/"+traineeID+"/recommendations", coachToken, nil, nil))

	require.Equal(t, http.StatusOK, s.do(http.MethodPut, "/api/v1/trainee/profile", traineeToken, gin.H{
		"age": 30, "fitnessLevel": "beginner", "goals": []string{"strength"},
		"availableMinutesPerDay": 45, "availableDaysPerWeek": 3,
	}, nil))

	var tpl struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/coach/templates", coachToken, gin.H{
		"name":           "Starter strength",
		"durationWeeks":  4,
		"schedule":       []gin.H{{"week": 1, "days": []gin.H{{"day": 1, "restDay": true}}}},
		"targetCriteria": gin.H{"fitnessLevel": "beginner", "goals": []string{"strength"}},
	}, &tpl))
	assert.Equal(t, "draft", tpl.Status)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/v1/coach/templates/"+tpl.ID+"/publish", coachToken, nil, &tpl))
	assert.Equal(t, "active", tpl.Status)

	var recs []struct {
		ID    string  `json:"id"`
		Score float64 `json:"score"`
	}
	require.Equal(t, http.StatusOK, s.do(http.MethodPost,
		"/api/v1/coach/trainees/"+traineeID+"/recommendations", coachToken, nil, &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, 100.0, recs[0].Score)

	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/trainee/recommendations", traineeToken, nil, &recs))
	require.Len(t, recs, 1)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost,
		"/api/v1/trainee/recommendations/"+recs[0].ID+"/view", traineeToken, nil, nil))

	var accepted service.AcceptResult
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/v1/coach/recommendations/"+recs[0].ID+"/accept",
		coachToken, gin.H{"startDate": time.Now().Add(-time.Hour)}, &accepted))
	require.NotNil(t, accepted.Assignment)
	assert.Equal(t, "active", string(accepted.Assignment.Status))
	assignmentID := accepted.Assignment.ID.Hex()

	// Assigning again while the first run is live conflicts.
	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/api/v1/coach/templates/"+tpl.ID+"/assign",
		coachToken, gin.H{"traineeId": traineeID}, nil))

	var progressed struct {
		Progress struct {
			CurrentWeek int `json:"currentWeek"`
		} `json:"progress"`
	}
	require.Equal(t, http.StatusOK, s.do(http.MethodPatch, "/api/v1/assignments/"+assignmentID+"/progress",
		traineeToken, gin.H{"currentWeek": 2}, &progressed))
	assert.Equal(t, 2, progressed.Progress.CurrentWeek)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/v1/assignments/"+assignmentID+"/rate",
		traineeToken, gin.H{"rating": 9}, nil))
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/v1/coach/assignments/"+assignmentID+"/cancel",
		traineeToken, nil, nil))

	// Archiving is blocked while the assignment runs.
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/v1/coach/templates/"+tpl.ID+"/archive", coachToken, nil, nil))
}

func TestMetricsRoute(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/ping", "", nil, nil))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fitcoach_http_requests_total")
}
