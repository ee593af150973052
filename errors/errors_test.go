package errors

import (
	"bytes"
	Errors "errors"
	"log"
	"strings"
	"testing"

	"chatline_server/global"
)

func TestHandleBasicError(t *testing.T) {

	var buf bytes.Buffer
	global.InternalLogger = log.New(&buf, "", 0)

	if HandleBasicError(nil) {
		t.Fatalf("nil error reported as failure")
	}
	if buf.Len() != 0 {
		t.Fatalf("nil error logged: %q", buf.String())
	}

	if !HandleBasicError(Errors.New("counter unreachable")) {
		t.Fatalf("error not reported as failure")
	}
	if !strings.Contains(buf.String(), "counter unreachable") {
		t.Fatalf("error not logged, got %q", buf.String())
	}
}
