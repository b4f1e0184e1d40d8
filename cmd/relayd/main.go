// relayd is a development relay: it serves the key directory and the
// store-and-forward envelope mailbox that sealwire clients talk to.
package main

import (
	"flag"
	"net/http"

	"github.com/sirupsen/logrus"

	"sealwire/internal/relay"
)

func main() {
	listen := flag.String("listen", ":8484", "listen address")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	log := logrus.New()
	if lvl, err := logrus.ParseLevel(*level); err == nil {
		log.SetLevel(lvl)
	}

	srv := relay.NewServer(log)
	log.WithField("addr", *listen).Info("relay listening")
	log.Fatal(http.ListenAndServe(*listen, srv.Handler()))
}
