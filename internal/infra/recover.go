package infra

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var ErrPanic = errors.New("recovered panic")

// Recover runs f and turns a panic inside it into an error wrapping ErrPanic,
// so one broken update cannot take the whole bot down.
func Recover(id string, f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			where := identifyPanic()
			log.WithFields(log.Fields{"object": "Recover", "job": id, "at": where}).Errorf("panic: %v", r)
			err = errors.Wrapf(ErrPanic, "%s: %v at %s", id, r, where)
		}
	}()
	return f()
}

func identifyPanic() string {
	var name, file string
	var line int
	var pc [16]uintptr

	n := runtime.Callers(4, pc[:])
	for _, pc := range pc[:n] {
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		file, line = fn.FileLine(pc)
		name = fn.Name()
		if !strings.HasPrefix(name, "runtime.") {
			break
		}
	}

	switch {
	case name != "":
		return fmt.Sprintf("%v:%v", name, line)
	case file != "":
		return fmt.Sprintf("%v:%v", file, line)
	}
	return "unknown"
}
