package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// この API が受け取る JSON は {"value": ...} の小さなペイロードだけなので、
// ボディ上限もキャッシュ値のサイズ感に合わせて絞る。
const maxBodyBytes = 256 << 10 // 256KB

// DecodeJSON はリクエストボディの JSON を dst へ読み取ります。
// 上限超過・未知フィールド・型不一致・多重 JSON はすべて 400 に写します。
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return InvalidJSON("empty body")
	}
	defer func() {
		_ = r.Body.Close()
	}()

	// 上限超過時は MaxBytesReader が接続の読み捨ても面倒を見る
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var se *json.SyntaxError
		var ute *json.UnmarshalTypeError
		var mbe *http.MaxBytesError
		switch {
		case errors.As(err, &mbe):
			return BadRequest(fmt.Sprintf("body exceeds %d bytes", mbe.Limit))
		case errors.Is(err, io.EOF):
			return InvalidJSON("empty body")
		case errors.As(err, &se):
			return InvalidJSON("malformed JSON")
		case errors.As(err, &ute):
			return InvalidJSON(fmt.Sprintf("field %q must be a %s", ute.Field, ute.Type))
		default:
			return InvalidJSON("invalid JSON")
		}
	}
	// 余分なトークンがないか確認(多重JSON防止)
	if dec.More() {
		return InvalidJSON("multiple JSON values")
	}
	return nil
}
