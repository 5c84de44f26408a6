// Package logger, uygulama genelinde structured logging sağlar.
//
// Her paket kendi component entry'sini alır:
//
//	var log = logger.For("ws")
//	log.WithField("client_id", id).Info("client connected")
//
// Tüm entry'ler logrus'un standard logger'ını paylaşır, bu yüzden
// Setup main'de sonradan çağrılsa bile seviye ve format hepsine uygulanır.
package logger

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Setup, log seviyesini ve formatını ayarlar.
// level: "debug", "info", "warn", "error" (geçersizse info).
// format: "json" veya "text".
func Setup(level, format string) {
	l := logrus.StandardLogger()

	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// SetOutput, log çıktısını yönlendirir (testlerde io.Discard).
func SetOutput(w io.Writer) {
	logrus.StandardLogger().SetOutput(w)
}

// For, component alanı set edilmiş bir log entry döner.
func For(component string) *logrus.Entry {
	return logrus.WithField("component", component)
}
