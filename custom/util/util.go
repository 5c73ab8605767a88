package util

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/romana/rlog"
	sqlmock "gopkg.in/DATA-DOG/go-sqlmock.v1"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pos_system/custom/apperr"
)

type DbConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type ServerConfig struct {
	Postgres        DbConfig `yaml:"postgres"`
	Replica_dsn     string   `yaml:"replica_dsn"`
	Pos_port        int      `yaml:"pos_port"`
	Tax_rate        float64  `yaml:"tax_rate"`
	Staff_id_header string   `yaml:"staff_id_header"`
}

func (c *ServerConfig) GetConf(fileName string) *ServerConfig {
	yamlFile, err := os.ReadFile(fileName)
	if err != nil {
		log.Printf("Read yaml file %s failed: %s ", fileName, err.Error())
	}
	err = yaml.Unmarshal(yamlFile, c)
	if err != nil {
		log.Fatalf("Unmarshal: %v", err)
	}
	if c.Tax_rate == 0 {
		c.Tax_rate = 0.10
	}
	if c.Staff_id_header == "" {
		c.Staff_id_header = "X-Staff-ID"
	}
	return c
}

func IsAllowHttpMethod(methods []string, w http.ResponseWriter, r *http.Request) bool {
	for _, method := range methods {
		if method == r.Method {
			return true
		}
	}
	http.Error(w, "Not allow http method", http.StatusMethodNotAllowed)
	return false
}

func FetchReqObject(r *http.Request, reqObj interface{}) error {
	if r == nil {
		return errors.New("http request is nil")
	}
	reqBody, err := io.ReadAll(r.Body)
	if err != nil {
		errInfo := "Read request body failed" + err.Error()
		rlog.Error(errInfo)
		return errors.New(errInfo)
	}
	err = json.Unmarshal(reqBody, reqObj)
	if err != nil {
		errInfo := "Unmarshal request body failed" + err.Error()
		rlog.Error(errInfo)
		return errors.New(errInfo)
	}
	return nil
}

// WriteError maps typed engine errors to HTTP status codes and returns
// the message verbatim.
func WriteError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), apperr.HTTPStatus(err))
}

func WriteJSON(w http.ResponseWriter, obj interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	respBody, _ := json.Marshal(obj)
	w.Write(respBody)
}

func GetStringPtr(s string) *string {
	return &s
}

func GetUintPtr(v uint) *uint {
	return &v
}

// Round2 rounds a money amount to cents. All persisted amounts go
// through this after arithmetic.
func Round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// AllocateNumber builds a date-scoped sequential number like
// ORD-20250101-0001. Must run inside the creating transaction; the
// unique index on the number column backstops concurrent allocations.
func AllocateNumber(tx *gorm.DB, prefix string, entity interface{}) (string, error) {
	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var count int64
	if err := tx.Model(entity).Where("created_at >= ?", dayStart).Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, now.Format("20060102"), count+1), nil
}

// DbMock For unit test usage
func DbMock(t *testing.T) (*sql.DB, *gorm.DB, sqlmock.Sqlmock) {
	sqldb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	gormdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn: sqldb,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		t.Fatal(err)
	}

	return sqldb, gormdb, mock
}

// ObjectToRows For unit test usage
func ObjectToRows(object interface{}) (*sqlmock.Rows, error) {
	buf, err := json.Marshal(object)
	if err != nil {
		return nil, err
	}
	rowMap := make(map[string]interface{})
	err = json.Unmarshal(buf, &rowMap)
	if err != nil {
		return nil, err
	}
	columns := make([]string, 0)
	values := make([]driver.Value, 0)
	for k, v := range rowMap {
		columns = append(columns, k)
		values = append(values, v)
	}
	return sqlmock.NewRows(columns).AddRow(values...), nil
}
