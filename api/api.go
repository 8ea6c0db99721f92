package api

import (
	"fmt"

	"swingbacktest/internal/app"
	"swingbacktest/internal/strategy"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type ApiHandler struct {
	BacktestHandler  app.BacktestHandler
	StrategyRegistry *strategy.Registry
}

func (m ApiHandler) StartApi(port int) error {
	router := gin.Default()
	router.Use(cors.Default())

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(200, map[string]string{"message": "swingbacktest engine up"})
	})
	router.POST("/backtest", m.backtest)
	router.GET("/strategies", m.listStrategies)

	return router.Run(fmt.Sprintf(":%d", port))
}

func returnErrorJson(err error, c *gin.Context) {
	c.AbortWithStatusJSON(500, gin.H{
		"error": err.Error(),
	})
}

func returnErrorJsonCode(err error, c *gin.Context, code int) {
	c.AbortWithStatusJSON(code, gin.H{
		"error": err.Error(),
	})
}

func (m ApiHandler) listStrategies(c *gin.Context) {
	c.JSON(200, gin.H{"strategies": m.StrategyRegistry.List()})
}
