// Command steeze serves the routes of a TOML manifest with the handlers below.
package main

import (
	"net/http"
	"time"

	"github.com/joeydtaylor/steeze-fast/pkg/codec"
	"github.com/joeydtaylor/steeze-fast/pkg/core"
	"github.com/joeydtaylor/steeze-fast/pkg/serverfx"
	"go.uber.org/fx"
)

type greeting struct {
	Name string `json:"name"`
}

func init() {
	core.MustRegisterType[greeting]("greeting", codec.JSON)

	core.MustRegisterHandler("hello", func(_ *core.Request, rep *core.Reply) {
		_ = rep.Send(map[string]string{"hello": "world"})
	})
	core.MustRegisterHandler("greet", func(req *core.Request, rep *core.Reply) {
		g := req.Body.(*greeting)
		_ = rep.Send(map[string]string{"hello": g.Name})
	})
	core.MustRegisterHandler("user", func(req *core.Request, rep *core.Reply) {
		_ = rep.Send(map[string]string{"id": req.Params["id"]})
	})
}

// uptime is an app plugin living next to the manifest routes.
func uptime(s *core.Instance, _ any) error {
	started := time.Now()
	if err := s.Decorate("startedAt", started); err != nil {
		return err
	}
	return s.Get("/uptime", func(_ *core.Request, rep *core.Reply) {
		_ = rep.Code(http.StatusOK).Send(map[string]string{"uptime": time.Since(started).Round(time.Second).String()})
	})
}

func main() {
	fx.New(
		serverfx.Module(serverfx.WithPlugins(uptime)),
	).Run()
}
