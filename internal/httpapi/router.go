package httpapi

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/logger"
)

// NewRouter assembles the gin engine: CORS, trace-context attachment and
// request logging as global middleware, then task CRUD and health routes,
// the way the teacher's internal/http/router.go wires its own engine.
func NewRouter(tasks *TaskHandlers, health *HealthHandlers, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())
	r.Use(AttachTraceContext())
	r.Use(RequestLogger(log))

	r.POST("/tasks", tasks.Create)
	r.GET("/tasks", tasks.List)
	r.GET("/tasks/:id", tasks.Get)
	r.DELETE("/tasks/:id", tasks.Delete)

	r.GET("/health", health.Health)
	r.GET("/health/workers", health.Workers)
	r.GET("/health/metrics", health.Metrics)
	r.POST("/health/recovery", health.Recovery)
	r.GET("/health/consistency", health.Consistency)
	r.GET("/health/live", health.Live)
	r.GET("/health/ready", health.Ready)

	return r
}
