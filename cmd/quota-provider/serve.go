package main

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/yuxishi/quota-provider/internal/handler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve lifecycle events over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}

		h := handler.New(a.provider, a.clients.Region("").Regions, a.cache)

		gin.SetMode(gin.ReleaseMode)
		r := gin.Default()
		h.Routes(r)

		port := a.cfg.GetPort()
		a.logger.Info("starting server", "addr", "http://localhost:"+port, "region", a.cfg.GetRegion())
		return r.Run(":" + port)
	},
}
