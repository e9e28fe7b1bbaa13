package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/green-city-platform/internal/config"
	"github.com/iliyamo/green-city-platform/internal/geocode"
	"github.com/iliyamo/green-city-platform/internal/middleware"
	"github.com/iliyamo/green-city-platform/internal/model"
	"github.com/iliyamo/green-city-platform/internal/repository"
	"github.com/iliyamo/green-city-platform/internal/session"
	"github.com/iliyamo/green-city-platform/internal/utils"
)

var (
	zoneCols = []string{"id", "city_id", "city", "name", "zone_type", "area", "location", "coordinates",
		"created_by", "creator", "status", "approved_by", "approved_date", "rejection_reason", "created_date"}
	taskCols = []string{"id", "zone_id", "zone", "city_id", "city", "task_type", "status", "priority",
		"description", "created_by", "creator", "assigned_organization", "organization", "due_date",
		"completed_date", "completed_by", "verification_requested_by", "requester",
		"verification_requested_date", "created_date"}
	orgCols = []string{"id", "name", "org_type", "description", "contact_person", "phone", "email", "website",
		"city_id", "city", "is_active", "created_by", "created_date"}
	cityCols = []string{"id", "name", "region", "population"}
	userCols = []string{"id", "username", "email", "password_hash", "city", "role", "is_active", "created_date"}

	resident = model.Identity{UserID: 3, Username: "resident", Role: model.RoleUser, City: "Ковдор"}
	admin    = model.Identity{UserID: 2, Username: "admin", Role: model.RoleAdmin, City: "Ковдор"}
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// newContext builds an echo context for method/target with an optional JSON
// body, the given caller and path parameters as name/value pairs.
func newContext(method, target, body string, who model.Identity, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if who.Authenticated() {
		middleware.SetIdentity(c, who)
	}
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func zoneRow(id int, status string) *sqlmock.Rows {
	return sqlmock.NewRows(zoneCols).AddRow(id, 13, "Ковдор", "Центральный парк", "Парк", 5.2, "Центр города",
		"67.566,30.467", 1, "creator", status, nil, nil, nil, time.Now())
}

func taskRow(id int, status string) *sqlmock.Rows {
	return sqlmock.NewRows(taskCols).AddRow(id, 1, "Центральный парк", 13, "Ковдор", "Обрезка деревьев",
		status, "high", nil, 2, "admin", nil, "", nil, nil, nil, nil, "", nil, time.Now())
}

func TestZoneHandler_Create(t *testing.T) {
	body := `{"name":"Сквер у школы","zone_type":"Сквер","coordinates":"67.560,30.470"}`

	t.Run("PendingForUser", func(t *testing.T) {
		db, mock := newMock(t)
		h := &ZoneHandler{Zones: repository.NewZoneRepo(db), Cities: repository.NewCityRepo(db)}
		mock.ExpectQuery(`FROM cities WHERE name = \?`).WithArgs("Ковдор").
			WillReturnRows(sqlmock.NewRows(cityCols).AddRow(13, "Ковдор", "Мурманская область", 15000))
		mock.ExpectExec("INSERT INTO green_zones").
			WithArgs(uint64(13), "Сквер у школы", "Сквер", nil, nil, "67.560,30.470", uint64(3), "pending", nil, nil).
			WillReturnResult(sqlmock.NewResult(21, 1))
		mock.ExpectQuery(`FROM green_zones gz .* WHERE gz.id = \?`).WithArgs(uint64(21)).WillReturnRows(zoneRow(21, "pending"))

		c, rec := newContext(http.MethodPost, "/v1/zones", body, resident)
		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusCreated, rec.Code)
		out := decode(t, rec)
		assert.Equal(t, "pending", out["status"])
		assert.EqualValues(t, 21, out["id"])
		assert.Equal(t, "creator", out["creator_name"])
		created, err := time.Parse(time.RFC3339Nano, out["created_date"].(string))
		require.NoError(t, err)
		assert.False(t, created.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ApprovedForAdmin", func(t *testing.T) {
		db, mock := newMock(t)
		h := &ZoneHandler{Zones: repository.NewZoneRepo(db), Cities: repository.NewCityRepo(db)}
		mock.ExpectQuery(`FROM cities WHERE name = \?`).WithArgs("Ковдор").
			WillReturnRows(sqlmock.NewRows(cityCols).AddRow(13, "Ковдор", "Мурманская область", 15000))
		mock.ExpectExec("INSERT INTO green_zones").
			WithArgs(uint64(13), "Сквер у школы", "Сквер", nil, nil, "67.560,30.470", uint64(2), "approved",
				uint64(2), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(22, 1))
		mock.ExpectQuery(`FROM green_zones gz .* WHERE gz.id = \?`).WithArgs(uint64(22)).WillReturnRows(zoneRow(22, "approved"))

		c, rec := newContext(http.MethodPost, "/v1/zones", body, admin)
		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "approved", decode(t, rec)["status"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MissingCoordinates", func(t *testing.T) {
		db, mock := newMock(t)
		h := &ZoneHandler{Zones: repository.NewZoneRepo(db), Cities: repository.NewCityRepo(db)}

		c, rec := newContext(http.MethodPost, "/v1/zones", `{"name":"Сквер","zone_type":"Сквер"}`, resident)
		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "coordinates are required", decode(t, rec)["error"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NoCity", func(t *testing.T) {
		db, _ := newMock(t)
		h := &ZoneHandler{Zones: repository.NewZoneRepo(db), Cities: repository.NewCityRepo(db)}
		who := resident
		who.City = ""

		c, rec := newContext(http.MethodPost, "/v1/zones", body, who)
		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestZoneHandler_Get(t *testing.T) {
	t.Run("PendingHiddenFromUser", func(t *testing.T) {
		db, mock := newMock(t)
		h := &ZoneHandler{Zones: repository.NewZoneRepo(db)}
		mock.ExpectQuery(`FROM green_zones gz .* WHERE gz.id = \?`).WithArgs(uint64(4)).WillReturnRows(zoneRow(4, "pending"))

		c, rec := newContext(http.MethodGet, "/v1/zones/4", "", resident, "id", "4")
		require.NoError(t, h.Get(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "zone is awaiting moderation", decode(t, rec)["error"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock := newMock(t)
		h := &ZoneHandler{Zones: repository.NewZoneRepo(db)}
		mock.ExpectQuery(`FROM green_zones gz .* WHERE gz.id = \?`).WithArgs(uint64(99)).WillReturnError(sql.ErrNoRows)

		c, rec := newContext(http.MethodGet, "/v1/zones/99", "", resident, "id", "99")
		require.NoError(t, h.Get(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("InvalidID", func(t *testing.T) {
		h := &ZoneHandler{}
		c, rec := newContext(http.MethodGet, "/v1/zones/abc", "", resident, "id", "abc")
		require.NoError(t, h.Get(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestZoneHandler_Approve(t *testing.T) {
	t.Run("AlreadyApproved", func(t *testing.T) {
		db, mock := newMock(t)
		h := &ZoneHandler{Zones: repository.NewZoneRepo(db)}
		mock.ExpectQuery(`FROM green_zones gz .* WHERE gz.id = \?`).WithArgs(uint64(4)).WillReturnRows(zoneRow(4, "approved"))

		c, rec := newContext(http.MethodPost, "/v1/zones/4/approve", "", admin, "id", "4")
		require.NoError(t, h.Approve(c))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success", func(t *testing.T) {
		db, mock := newMock(t)
		h := &ZoneHandler{Zones: repository.NewZoneRepo(db)}
		mock.ExpectQuery(`FROM green_zones gz .* WHERE gz.id = \?`).WithArgs(uint64(4)).WillReturnRows(zoneRow(4, "pending"))
		mock.ExpectExec(`UPDATE green_zones SET status = \?`).
			WithArgs("approved", uint64(2), sqlmock.AnyArg(), nil, uint64(4), "pending").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`FROM green_zones gz .* WHERE gz.id = \?`).WithArgs(uint64(4)).WillReturnRows(zoneRow(4, "approved"))

		c, rec := newContext(http.MethodPost, "/v1/zones/4/approve", "", admin, "id", "4")
		require.NoError(t, h.Approve(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "approved", decode(t, rec)["status"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestZoneHandler_Delete(t *testing.T) {
	db, mock := newMock(t)
	h := &ZoneHandler{Zones: repository.NewZoneRepo(db)}
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM green_zones WHERE id = \?`).WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectExec("DELETE FROM zone_reports").WithArgs(uint64(4)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM zone_organizations").WithArgs(uint64(4)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM maintenance_tasks").WithArgs(uint64(4)).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM green_zones").WithArgs(uint64(4)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := newContext(http.MethodDelete, "/v1/zones/4", "", admin, "id", "4")
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskHandler_SetStatus(t *testing.T) {
	t.Run("UserCannotComplete", func(t *testing.T) {
		db, mock := newMock(t)
		h := &TaskHandler{Tasks: repository.NewTaskRepo(db)}
		mock.ExpectQuery(`FROM maintenance_tasks mt .* WHERE mt.id = \?`).WithArgs(uint64(5)).WillReturnRows(taskRow(5, "pending"))

		c, rec := newContext(http.MethodPost, "/v1/tasks/5/status", `{"status":"completed"}`, resident, "id", "5")
		require.NoError(t, h.SetStatus(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UserRequestsVerification", func(t *testing.T) {
		db, mock := newMock(t)
		h := &TaskHandler{Tasks: repository.NewTaskRepo(db)}
		mock.ExpectQuery(`FROM maintenance_tasks mt .* WHERE mt.id = \?`).WithArgs(uint64(5)).WillReturnRows(taskRow(5, "pending"))
		mock.ExpectExec(`UPDATE maintenance_tasks SET status = \?, verification_requested_by = \?`).
			WithArgs("verification_requested", uint64(3), sqlmock.AnyArg(), uint64(5), "pending").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`FROM maintenance_tasks mt .* WHERE mt.id = \?`).WithArgs(uint64(5)).
			WillReturnRows(taskRow(5, "verification_requested"))

		c, rec := newContext(http.MethodPost, "/v1/tasks/5/status", `{"status":"verification_requested"}`, resident, "id", "5")
		require.NoError(t, h.SetStatus(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "verification_requested", decode(t, rec)["status"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		h := &TaskHandler{}
		c, rec := newContext(http.MethodPost, "/v1/tasks/5/status", `{"status":"done"}`, admin, "id", "5")
		require.NoError(t, h.SetStatus(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTaskHandler_Create(t *testing.T) {
	t.Run("ZoneNotApproved", func(t *testing.T) {
		db, mock := newMock(t)
		h := &TaskHandler{Tasks: repository.NewTaskRepo(db), Zones: repository.NewZoneRepo(db)}
		mock.ExpectQuery(`FROM green_zones gz .* WHERE gz.id = \?`).WithArgs(uint64(4)).WillReturnRows(zoneRow(4, "rejected"))

		c, rec := newContext(http.MethodPost, "/v1/zones/4/tasks", `{"task_type":"Полив"}`, resident, "id", "4")
		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("BadPriority", func(t *testing.T) {
		h := &TaskHandler{}
		c, rec := newContext(http.MethodPost, "/v1/zones/4/tasks", `{"task_type":"Полив","priority":"urgent"}`, resident, "id", "4")
		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestOrganizationHandler_Link(t *testing.T) {
	t.Run("AlreadyLinked", func(t *testing.T) {
		db, mock := newMock(t)
		h := &OrganizationHandler{Orgs: repository.NewOrganizationRepo(db), Zones: repository.NewZoneRepo(db)}
		mock.ExpectQuery(`FROM green_zones gz .* WHERE gz.id = \?`).WithArgs(uint64(4)).WillReturnRows(zoneRow(4, "approved"))
		mock.ExpectQuery(`FROM organizations o .* WHERE o.id = \?`).WithArgs(uint64(7)).
			WillReturnRows(sqlmock.NewRows(orgCols).AddRow(7, "Горзеленхоз", "municipal", nil, nil, nil, nil, nil,
				13, "Ковдор", true, 2, time.Now()))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM zone_organizations`).WithArgs(uint64(4), uint64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))

		c, rec := newContext(http.MethodPost, "/v1/zones/4/organizations", `{"organization_id":7}`, admin, "id", "4")
		require.NoError(t, h.Link(c))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, repository.ErrAlreadyLinked.Error(), decode(t, rec)["error"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("EndBeforeStart", func(t *testing.T) {
		h := &OrganizationHandler{}
		c, rec := newContext(http.MethodPost, "/v1/zones/4/organizations",
			`{"organization_id":7,"start_date":"2024-05-01","end_date":"2024-04-01"}`, admin, "id", "4")
		require.NoError(t, h.Link(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUserHandler_ToggleRole(t *testing.T) {
	userRow := func(id int, role string) *sqlmock.Rows {
		return sqlmock.NewRows(userCols).AddRow(id, "someone", "someone@example.com", "hash", "Ковдор", role, true, time.Now())
	}

	t.Run("Self", func(t *testing.T) {
		db, mock := newMock(t)
		h := &UserHandler{Users: repository.NewUserRepo(db), Sessions: session.NewMemoryStore()}
		mock.ExpectQuery(`FROM users WHERE id = \?`).WithArgs(uint64(2)).WillReturnRows(userRow(2, "admin"))

		c, rec := newContext(http.MethodPost, "/v1/admin/users/2/role", "", admin, "id", "2")
		require.NoError(t, h.ToggleRole(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CreatorTarget", func(t *testing.T) {
		db, mock := newMock(t)
		h := &UserHandler{Users: repository.NewUserRepo(db), Sessions: session.NewMemoryStore()}
		mock.ExpectQuery(`FROM users WHERE id = \?`).WithArgs(uint64(1)).WillReturnRows(userRow(1, "creator"))

		c, rec := newContext(http.MethodPost, "/v1/admin/users/1/role", "", admin, "id", "1")
		require.NoError(t, h.ToggleRole(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("AdminCannotDemoteAdmin", func(t *testing.T) {
		db, mock := newMock(t)
		h := &UserHandler{Users: repository.NewUserRepo(db), Sessions: session.NewMemoryStore()}
		mock.ExpectQuery(`FROM users WHERE id = \?`).WithArgs(uint64(6)).WillReturnRows(userRow(6, "admin"))

		c, rec := newContext(http.MethodPost, "/v1/admin/users/6/role", "", admin, "id", "6")
		require.NoError(t, h.ToggleRole(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func testConfig() config.Config {
	return config.Config{JWTSecret: "test-secret", AccessTTLMin: 15, RefreshTTLDays: 1, BcryptCost: 4}
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("Taken", func(t *testing.T) {
		db, mock := newMock(t)
		h := NewAuthHandler(testConfig(), repository.NewUserRepo(db), repository.NewCityRepo(db), session.NewMemoryStore())
		mock.ExpectQuery(`FROM cities WHERE name = \?`).WithArgs("Ковдор").
			WillReturnRows(sqlmock.NewRows(cityCols).AddRow(13, "Ковдор", "Мурманская область", 15000))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).WithArgs("anna", "anna@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))

		c, rec := newContext(http.MethodPost, "/v1/auth/register",
			`{"username":"anna","email":"Anna@Example.com","password":"secret1","city":"Ковдор"}`, model.Identity{})
		require.NoError(t, h.Register(c))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UnknownCity", func(t *testing.T) {
		db, mock := newMock(t)
		h := NewAuthHandler(testConfig(), repository.NewUserRepo(db), repository.NewCityRepo(db), session.NewMemoryStore())
		mock.ExpectQuery(`FROM cities WHERE name = \?`).WithArgs("Атлантида").WillReturnError(sql.ErrNoRows)

		c, rec := newContext(http.MethodPost, "/v1/auth/register",
			`{"username":"anna","email":"anna@example.com","password":"secret1","city":"Атлантида"}`, model.Identity{})
		require.NoError(t, h.Register(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "unknown city", decode(t, rec)["error"])
	})

	t.Run("ShortPassword", func(t *testing.T) {
		h := NewAuthHandler(testConfig(), nil, nil, session.NewMemoryStore())
		c, rec := newContext(http.MethodPost, "/v1/auth/register",
			`{"username":"anna","email":"anna@example.com","password":"123","city":"Ковдор"}`, model.Identity{})
		require.NoError(t, h.Register(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	hash, err := utils.HashPassword("secret1", 4)
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		db, mock := newMock(t)
		store := session.NewMemoryStore()
		h := NewAuthHandler(testConfig(), repository.NewUserRepo(db), repository.NewCityRepo(db), store)
		mock.ExpectQuery(`FROM users WHERE username = \?`).WithArgs("anna").
			WillReturnRows(sqlmock.NewRows(userCols).AddRow(3, "anna", "anna@example.com", hash, "Ковдор", "user", true, time.Now()))

		c, rec := newContext(http.MethodPost, "/v1/auth/login", `{"username":"anna","password":"secret1"}`, model.Identity{})
		require.NoError(t, h.Login(c))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp authResp
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Access.Token)
		claims, err := utils.ParseAccessToken("test-secret", resp.Access.Token)
		require.NoError(t, err)
		assert.Equal(t, "Ковдор", claims.City)

		uid, err := store.ValidateRefresh(context.Background(), utils.HashRefreshRaw(resp.Refresh.Token))
		require.NoError(t, err)
		assert.Equal(t, uint64(3), uid)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Inactive", func(t *testing.T) {
		db, mock := newMock(t)
		h := NewAuthHandler(testConfig(), repository.NewUserRepo(db), repository.NewCityRepo(db), session.NewMemoryStore())
		mock.ExpectQuery(`FROM users WHERE username = \?`).WithArgs("anna").
			WillReturnRows(sqlmock.NewRows(userCols).AddRow(3, "anna", "anna@example.com", hash, "Ковдор", "user", false, time.Now()))

		c, rec := newContext(http.MethodPost, "/v1/auth/login", `{"username":"anna","password":"secret1"}`, model.Identity{})
		require.NoError(t, h.Login(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		db, mock := newMock(t)
		h := NewAuthHandler(testConfig(), repository.NewUserRepo(db), repository.NewCityRepo(db), session.NewMemoryStore())
		mock.ExpectQuery(`FROM users WHERE username = \?`).WithArgs("anna").
			WillReturnRows(sqlmock.NewRows(userCols).AddRow(3, "anna", "anna@example.com", hash, "Ковдор", "user", true, time.Now()))

		c, rec := newContext(http.MethodPost, "/v1/auth/login", `{"username":"anna","password":"nope123"}`, model.Identity{})
		require.NoError(t, h.Login(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid credentials", decode(t, rec)["error"])
	})
}

type fakeGeocoder struct {
	point   *geocode.Point
	address *string
}

func (f fakeGeocoder) CityCoordinates(context.Context, string) *geocode.Point { return f.point }
func (f fakeGeocoder) GeocodeAddress(context.Context, string, string) *geocode.Point {
	return f.point
}
func (f fakeGeocoder) ReverseGeocode(context.Context, float64, float64) *string { return f.address }

func TestAPIHandler_ReverseGeocode(t *testing.T) {
	addr := "Ковдор, улица Слюдяная, 2"

	t.Run("BadCoordinates", func(t *testing.T) {
		h := &APIHandler{Geo: fakeGeocoder{address: &addr}}
		c, rec := newContext(http.MethodGet, "/v1/api/reverse_geocode?lat=abc&lon=30", "", model.Identity{})
		require.NoError(t, h.ReverseGeocode(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, false, decode(t, rec)["success"])
	})

	t.Run("NoResult", func(t *testing.T) {
		h := &APIHandler{Geo: fakeGeocoder{}}
		c, rec := newContext(http.MethodGet, "/v1/api/reverse_geocode?lat=67.5&lon=30.4", "", model.Identity{})
		require.NoError(t, h.ReverseGeocode(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Success", func(t *testing.T) {
		h := &APIHandler{Geo: fakeGeocoder{address: &addr}}
		c, rec := newContext(http.MethodGet, "/v1/api/reverse_geocode?lat=67.5&lon=30.4", "", model.Identity{})
		require.NoError(t, h.ReverseGeocode(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		out := decode(t, rec)
		assert.Equal(t, true, out["success"])
		assert.Equal(t, addr, out["address"])
	})
}

func TestAPIHandler_Geocode(t *testing.T) {
	t.Run("MissingAddress", func(t *testing.T) {
		h := &APIHandler{Geo: fakeGeocoder{}}
		c, rec := newContext(http.MethodGet, "/v1/api/geocode", "", model.Identity{})
		require.NoError(t, h.Geocode(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Found", func(t *testing.T) {
		h := &APIHandler{Geo: fakeGeocoder{point: &geocode.Point{Lat: 67.56, Lon: 30.47}}}
		c, rec := newContext(http.MethodGet, "/v1/api/geocode?address=Slyudyanaya+2&city=Kovdor", "", model.Identity{})
		require.NoError(t, h.Geocode(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.InDelta(t, 67.56, decode(t, rec)["lat"], 1e-9)
	})
}

func TestAPIHandler_CitySuggestions(t *testing.T) {
	t.Run("ShortQuery", func(t *testing.T) {
		db, mock := newMock(t)
		h := &APIHandler{Cities: repository.NewCityRepo(db)}
		c, rec := newContext(http.MethodGet, "/v1/api/city_suggestions?q="+url.QueryEscape("К"), "", model.Identity{})
		require.NoError(t, h.CitySuggestions(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decode(t, rec)["cities"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Matches", func(t *testing.T) {
		db, mock := newMock(t)
		h := &APIHandler{Cities: repository.NewCityRepo(db)}
		mock.ExpectQuery(`SELECT id, name, region, population FROM cities ORDER BY region, name`).
			WillReturnRows(sqlmock.NewRows(cityCols).
				AddRow(1, "Барнаул", "Алтайский край", 632391).
				AddRow(13, "Ковдор", "Мурманская область", 15000).
				AddRow(14, "Кировск", "Мурманская область", 26000))

		c, rec := newContext(http.MethodGet, "/v1/api/city_suggestions?q="+url.QueryEscape("ко"), "", model.Identity{})
		require.NoError(t, h.CitySuggestions(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		cities, ok := decode(t, rec)["cities"].([]any)
		require.True(t, ok)
		require.Len(t, cities, 1)
		assert.Equal(t, "Ковдор", cities[0].(map[string]any)["name"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAPIHandler_Zones(t *testing.T) {
	db, mock := newMock(t)
	h := &APIHandler{Zones: repository.NewZoneRepo(db)}
	mock.ExpectQuery(`FROM green_zones gz .* WHERE gz.status = 'approved' AND c.name = \?`).WithArgs("Ковдор").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "zone_type", "area", "location", "coordinates",
			"city_id", "city", "avg", "pending"}).
			AddRow(1, "Центральный парк", "Парк", 5.2, "Центр", "67.566,30.467", 13, "Ковдор", 76.666, 2))

	c, rec := newContext(http.MethodGet, "/v1/api/zones", "", resident)
	require.NoError(t, h.ZoneSummaries(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	zones := decode(t, rec)["zones"].([]any)
	require.Len(t, zones, 1)
	assert.InDelta(t, 76.7, zones[0].(map[string]any)["avg_health"], 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealth(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing()

	c, rec := newContext(http.MethodGet, "/healthz", "", model.Identity{})
	require.NoError(t, Health(db)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
