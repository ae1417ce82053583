package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hitoshi/pawpost/internal/model"
)

// maxRequestBodyBytes はJSONリクエストボディの上限。
const maxRequestBodyBytes = 100 << 10

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// flexibleID はJSONの数値と数値文字列の両方を受け付けるID。
// nullと空文字列は未指定(0)として扱う。
type flexibleID int64

func (id *flexibleID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*id = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(str)
		if s == "" {
			*id = 0
			return nil
		}
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("id must be an integer: %q", s)
	}
	*id = flexibleID(v)
	return nil
}

// decodeRequest はJSONボディをdstにデコードし、validateタグで必須項目を検証する。
// 未知のフィールドや不正なJSON、後続データ付きのボディは"Invalid request body"、必須項目の欠落はmissingMessageの
// バリデーションエラーになる。
func decodeRequest(w http.ResponseWriter, r *http.Request, dst interface{}, missingMessage string) *model.APIError {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return model.NewValidationError("Invalid request body")
	}
	// ボディはJSON値1つだけ。後続のデータがあれば不正とする
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return model.NewValidationError("Invalid request body")
	}

	if err := validate.Struct(dst); err != nil {
		return model.NewValidationError(missingMessage)
	}
	return nil
}

// parseIDParam はパスパラメータを正の整数IDとして解釈する。
func parseIDParam(raw string) (int64, *model.APIError) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, model.NewValidationError("Invalid post id")
	}
	return id, nil
}

// writeJSON はステータスコードとJSONボディを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}
