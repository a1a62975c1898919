// Package iojson writes command output as JSON for scripting.
package iojson

import (
	"encoding/json"
	"fmt"
	"io"
)

func marshalFailure(err error) string {
	msg, _ := json.Marshal(err.Error())
	return fmt.Sprintf(`{"message":"marshal output","data":{"json_error":%s}}`, msg)
}

// WriteWith writes obj as indented JSON to w. A marshaling failure is
// reported as a JSON error object on ew.
func WriteWith(w io.Writer, ew io.Writer, obj any) error {
	bits, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		_, err = fmt.Fprintln(ew, marshalFailure(err))
		return err
	}

	_, err = fmt.Fprintln(w, string(bits))
	return err
}
