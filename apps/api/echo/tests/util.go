package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/speakmate/speakmate/apps/api/echo"
	"github.com/speakmate/speakmate/core"
	"github.com/speakmate/speakmate/core/assignment"
	"github.com/speakmate/speakmate/core/content"
	"github.com/speakmate/speakmate/core/ledger"
	"github.com/speakmate/speakmate/core/student"
	inmemdb "github.com/speakmate/speakmate/storage/database/inmem"
	testutil "github.com/speakmate/speakmate/tests"
)

var testConf = &core.Config{
	AppName:       "Speakmate",
	Env:           "TEST",
	TestMode:      true,
	TemplateEmail: "template",
	Fanout:        core.FanoutConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond},
}

// setup returns a server backed by `store`, or by a fresh in-memory store when nil.
func setup(t *testing.T, store ledger.Store) (Server, ledger.Store) {
	t.Helper()
	if store == nil {
		store = inmemdb.NewRecordStore(inmemdb.Open())
	}
	logger := testutil.NopLogger{}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	return NewServer(ServerDeps{
		Conf:           testConf,
		Logger:         logger,
		ContentSvc:     content.NewService(store, logger, core.NopMetrics),
		AssignmentSvc:  assignment.NewService(store, logger, core.NopMetrics, testConf.Fanout),
		StudentSvc:     student.NewService(store, logger, testConf.TemplateEmail),
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	}), store
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if _, ok := j1.([]interface{}); !ok {
		return false, nil
	}
	if _, ok := j2.([]interface{}); !ok {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHttpTests(t *testing.T, app Server, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
