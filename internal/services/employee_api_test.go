package services

import (
	"bytes"
	"image"
	_ "image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/policedirectory/internal/blob"
	"github.com/Lllllllleong/policedirectory/internal/directory"
	"github.com/Lllllllleong/policedirectory/internal/httpx"
	"github.com/Lllllllleong/policedirectory/internal/models"
	"github.com/Lllllllleong/policedirectory/internal/sheetdb"
	"github.com/Lllllllleong/policedirectory/internal/store"
)

const testToken = "s3cret"

type employeeFixture struct {
	api    *EmployeeAPIFunction
	sheet  *sheetdb.MemoryTable
	mem    *store.Memory
	photos *blob.MemoryStore
}

func newEmployeeFixture(t *testing.T, uploadsPerHour int) employeeFixture {
	t.Helper()
	sheet := sheetdb.NewMemoryTable(models.EmployeeColumns...).Seed(
		[]any{"123456", "Ravi Kumar", "ravi@ksp.gov.in", "9876543210", "", "", "", "HC", "1234",
			"Udupi", "Malpe PS", "", "O+", "", false, true, false},
	)
	mem := store.NewMemory(fixedNow)
	photos := blob.NewMemoryStore()
	api := NewEmployeeAPIWith(EmployeeAPIConfig{APIToken: testToken, ProfileFolderID: "profiles", UploadsPerHour: uploadsPerHour},
		sheet, mem.Employees, photos)
	api.now = fixedNow
	return employeeFixture{api: api, sheet: sheet, mem: mem, photos: photos}
}

func validEmployee() map[string]any {
	return map[string]any{
		"kgid":        "654321",
		"name":        "  meena   shetty ",
		"email":       "Meena@KSP.gov.in",
		"mobile1":     "+91 99887 76655",
		"rank":        "PC",
		"metalNumber": "777",
		"district":    "Udupi",
		"station":     "Kaup PS",
	}
}

func TestEmployeeAPIGetEmployees(t *testing.T) {
	f := newEmployeeFixture(t, 0)
	rec := serve(t, f.api, http.MethodGet, "/?action=getEmployees", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rows := decodeBody[[]map[string]any](t, rec)
	require.Len(t, rows, 1)
	assert.Equal(t, "123456", rows[0]["kgid"])
	assert.Nil(t, rows[0]["mobile2"], "empty cells are null")
	assert.Equal(t, true, rows[0]["isApproved"])
}

func TestEmployeeAPIUnknownAction(t *testing.T) {
	f := newEmployeeFixture(t, 0)
	rec := serve(t, f.api, http.MethodGet, "/?action=nope", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, f.api, http.MethodPost, "/?action=nope", testToken, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmployeeAPIRequiresToken(t *testing.T) {
	f := newEmployeeFixture(t, 0)
	for _, token := range []string{"", "wrong"} {
		rec := serve(t, f.api, http.MethodPost, "/?action=addEmployee", token, validEmployee())
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rows, _ := f.sheet.Rows(t.Context())
	assert.Len(t, rows, 1)
}

func TestEmployeeAPIAddEmployee(t *testing.T) {
	f := newEmployeeFixture(t, 0)
	rec := serve(t, f.api, http.MethodPost, "/?action=addEmployee", testToken, validEmployee())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "654321", decodeBody[map[string]any](t, rec)["kgid"])

	row, found, err := sheetdb.FindRow(t.Context(), f.sheet, "kgid", "654321")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Meena Shetty", row.String("name"))
	assert.Equal(t, "meena@ksp.gov.in", row.String("email"))
	assert.Equal(t, "9988776655", row.String("mobile1"))

	e, err := f.mem.Employees.Get(t.Context(), "654321")
	require.NoError(t, err)
	assert.Equal(t, "Kaup PS", e.Station)
	assert.Equal(t, testNow, e.CreatedAt)

	rec = serve(t, f.api, http.MethodPost, "/?action=addEmployee", testToken, validEmployee())
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestEmployeeAPIAddEmployeeInvalid(t *testing.T) {
	f := newEmployeeFixture(t, 0)
	body := validEmployee()
	body["mobile1"] = "12345"
	delete(body, "station")

	rec := serve(t, f.api, http.MethodPost, "/?action=addEmployee", testToken, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[httpx.ErrorResponse](t, rec)
	assert.Equal(t, map[string]any{"mobile1": "invalid_mobile", "station": "required"}, resp.Details)
}

func TestEmployeeAPIAddEmployeeCreatesHeader(t *testing.T) {
	sheet := sheetdb.NewMemoryTable()
	mem := store.NewMemory(fixedNow)
	api := NewEmployeeAPIWith(EmployeeAPIConfig{APIToken: testToken}, sheet, mem.Employees, blob.NewMemoryStore())

	rec := serve(t, api, http.MethodPost, "/?action=addEmployee", testToken, validEmployee())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	header, _ := sheet.Header(t.Context())
	assert.Equal(t, models.EmployeeColumns, header)
	rows, _ := sheet.Rows(t.Context())
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Values["pin"], "credentials never reach the sheet")
}

func TestEmployeeAPIUpdateEmployee(t *testing.T) {
	tests := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{"missing kgid", map[string]any{"name": "x"}, http.StatusBadRequest},
		{"unknown kgid", map[string]any{"kgid": "999"}, http.StatusNotFound},
		{"invalid change", map[string]any{"kgid": "123456", "mobile1": "123"}, http.StatusBadRequest},
		{"numeric kgid", map[string]any{"kgid": 123456, "bloodGroup": "B+"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEmployeeFixture(t, 0)
			rec := serve(t, f.api, http.MethodPost, "/?action=updateEmployee", testToken, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestEmployeeAPIUpdateEmployeeWritesBothStores(t *testing.T) {
	f := newEmployeeFixture(t, 0)
	rec := serve(t, f.api, http.MethodPost, "/?action=updateEmployee", testToken,
		map[string]any{"kgid": "123456", "mobile2": "+91 90000 11111", "station": "Udupi Town PS"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	row, _, _ := sheetdb.FindRow(t.Context(), f.sheet, "kgid", "123456")
	assert.Equal(t, "9000011111", row.String("mobile2"))
	assert.Equal(t, "Udupi Town PS", row.String("station"))
	assert.Equal(t, "Ravi Kumar", row.String("name"), "untouched columns are kept")

	doc := f.mem.Doc(store.EmployeesCollection, "123456")
	assert.Equal(t, "9000011111", doc["mobile2"])
	assert.Equal(t, testNow, doc["updatedAt"])
	assert.NotContains(t, doc, "name", "only changed fields are merged")
}

func TestEmployeeAPIUpdateEmployeeSheetOnlyColumns(t *testing.T) {
	header := append(append([]string{}, models.EmployeeColumns...), "pincode", "experience")
	sheet := sheetdb.NewMemoryTable(header...).Seed(
		[]any{"123456", "Ravi Kumar", "ravi@ksp.gov.in", "9876543210", "", "", "", "HC", "1234",
			"Udupi", "Malpe PS", "", "O+", "", false, true, false, "576100", "4"},
	)
	mem := store.NewMemory(fixedNow)
	api := NewEmployeeAPIWith(EmployeeAPIConfig{APIToken: testToken}, sheet, mem.Employees, blob.NewMemoryStore())

	rec := serve(t, api, http.MethodPost, "/?action=updateEmployee", testToken,
		map[string]any{"kgid": "123456", "pincode": "576101", "experience": "5", "shoeSize": "9"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	row, _, _ := sheetdb.FindRow(t.Context(), sheet, "kgid", "123456")
	assert.Equal(t, "576101", row.String("pincode"))
	assert.Equal(t, "5", row.String("experience"))
	assert.NotContains(t, row.Values, "shoeSize", "columns missing from the sheet are ignored")

	doc := mem.Doc(store.EmployeesCollection, "123456")
	assert.Equal(t, int64(576101), doc["pincode"])
	assert.Equal(t, int64(5), doc["experience"])
	assert.NotContains(t, doc, "shoeSize")
}

func TestEmployeeAPIDeleteEmployee(t *testing.T) {
	f := newEmployeeFixture(t, 0)
	require.NoError(t, f.mem.Employees.Create(t.Context(), models.Employee{Kgid: "123456", Name: "Ravi Kumar"}))

	rec := serve(t, f.api, http.MethodPost, "/?action=deleteEmployee", testToken, map[string]any{"kgid": "123456"})
	require.Equal(t, http.StatusOK, rec.Code)
	rows, _ := f.sheet.Rows(t.Context())
	assert.Empty(t, rows)
	assert.Nil(t, f.mem.Doc(store.EmployeesCollection, "123456"))

	rec = serve(t, f.api, http.MethodPost, "/?action=deleteEmployee", testToken, map[string]any{"kgid": "123456"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", decodeBody[httpx.ErrorResponse](t, rec).Error)
}

func TestEmployeeAPISearch(t *testing.T) {
	f := newEmployeeFixture(t, 0)
	require.NoError(t, f.mem.Employees.Create(t.Context(), models.Employee{
		Kgid: "123456", Name: "Ravi Kumar", Rank: "HC", District: "Udupi", Station: "Malpe PS", Pin: "secret", IsApproved: true,
	}))
	require.NoError(t, f.mem.Employees.Create(t.Context(), models.Employee{
		Kgid: "222222", Name: "Suresh Rao", Rank: "PSI", District: "Mysuru", Station: "Nazarbad PS", IsApproved: true,
	}))

	rec := serve(t, f.api, http.MethodGet, "/?action=search&q=ravi", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[searchResponse[models.Employee]](t, rec)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "123456", resp.Results[0].Item.Kgid)
	assert.Empty(t, resp.Results[0].Item.Pin)

	rec = serve(t, f.api, http.MethodGet, "/?action=search&district=Mysuru", "", nil)
	resp = decodeBody[searchResponse[models.Employee]](t, rec)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "222222", resp.Results[0].Item.Kgid)
}

func multipartPhoto(t *testing.T, filename string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/?action=uploadImage", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-API-Token", testToken)
	return req
}

func TestEmployeeAPIUploadImage(t *testing.T) {
	f := newEmployeeFixture(t, 0)
	rec := httptest.NewRecorder()
	f.api.ServeHTTP(rec, multipartPhoto(t, "123456.jpg", jpegBytes(t, 900, 600), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[models.UploadImageResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, blob.FileIDFromURL(resp.URL), resp.ID)
	assert.True(t, strings.HasPrefix(resp.URL, "https://drive.google.com/uc?export=view&id="), resp.URL)

	require.Contains(t, f.photos.Objects, resp.ID)
	img, format, err := image.Decode(bytes.NewReader(f.photos.Objects[resp.ID]))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 512, img.Bounds().Dx())

	row, _, _ := sheetdb.FindRow(t.Context(), f.sheet, "kgid", "123456")
	assert.Equal(t, resp.URL, row.String("photoUrl"))
	assert.Equal(t, resp.URL, f.mem.Doc(store.EmployeesCollection, "123456")["photoUrl"])
}

func TestEmployeeAPIUploadImageErrors(t *testing.T) {
	tests := []struct {
		name   string
		req    func(t *testing.T) *http.Request
		status int
	}{
		{"not an image", func(t *testing.T) *http.Request {
			return multipartPhoto(t, "123456.jpg", []byte("%PDF-1.4 not a photo"), nil)
		}, http.StatusUnsupportedMediaType},
		{"no kgid", func(t *testing.T) *http.Request {
			return multipartPhoto(t, "photo.jpg", jpegBytes(t, 20, 20), nil)
		}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEmployeeFixture(t, 0)
			rec := httptest.NewRecorder()
			f.api.ServeHTTP(rec, tt.req(t))
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.False(t, decodeBody[models.UploadImageResponse](t, rec).Success)
			assert.Empty(t, f.photos.Objects)
		})
	}
}

func TestEmployeeAPIUploadImageRateLimited(t *testing.T) {
	f := newEmployeeFixture(t, 1)
	upload := func() int {
		req := multipartPhoto(t, "123456.jpg", jpegBytes(t, 40, 40), nil)
		req.URL.RawQuery += "&userEmail=ravi@ksp.gov.in"
		rec := httptest.NewRecorder()
		f.api.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, upload())
	assert.Equal(t, http.StatusTooManyRequests, upload())
	assert.Len(t, f.photos.Objects, 1)
}

func TestChangedViolations(t *testing.T) {
	v := directory.Violations{"mobile1": "invalid_mobile", "station": "required"}
	assert.NoError(t, changedViolations(v, map[string]any{"kgid": "1", "name": "x"}))
	err := changedViolations(v, map[string]any{"mobile1": "1"})
	assert.Equal(t, directory.Violations{"mobile1": "invalid_mobile"}, err)
	assert.NoError(t, changedViolations(nil, nil))
}
