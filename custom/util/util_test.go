package util

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	sqlmock "gopkg.in/DATA-DOG/go-sqlmock.v1"

	"pos_system/model"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 2.50, Round2(2.499999999))
	assert.Equal(t, 1.0, Round2(0.999))
	assert.Equal(t, 27.50, Round2(25.0+2.5))
	assert.Equal(t, 0.0, Round2(0))
	assert.Equal(t, -3.33, Round2(-3.3349))
}

func TestGetConfDefaults(t *testing.T) {
	conf := ServerConfig{}
	conf.GetConf("no_such_config.yaml")
	assert.Equal(t, 0.10, conf.Tax_rate)
	assert.Equal(t, "X-Staff-ID", conf.Staff_id_header)
}

func TestIsAllowHttpMethod(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "http://localhost", nil)
	assert.True(t, IsAllowHttpMethod([]string{http.MethodPost}, w, r))

	w = httptest.NewRecorder()
	assert.False(t, IsAllowHttpMethod([]string{http.MethodGet}, w, r))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestAllocateNumber(t *testing.T) {
	sqlDB, gormDB, mock := DbMock(t)
	defer sqlDB.Close()

	mock.ExpectQuery(`^SELECT count\(\*\) FROM "orders" .+`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(7)))

	number, err := AllocateNumber(gormDB, "ORD", &model.Order{})

	assert.Nil(t, err)
	expected := fmt.Sprintf("ORD-%s-0008", time.Now().UTC().Format("20060102"))
	assert.Equal(t, expected, number)
}
