package util

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// Trace 计时：defer util.Trace("xxx")()
func Trace(name string) func() {
	start := time.Now()
	return func() {
		log.WithFields(log.Fields{
			"name":    name,
			"elapsed": time.Since(start).String(),
		}).Info("trace")
	}
}
