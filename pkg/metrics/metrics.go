package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 服务运行指标集合
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	HarvestSessionsStarted   prometheus.Counter
	HarvestSessionsCompleted prometheus.Counter
	PlantsRecorded           prometheus.Counter
	CyclesArchived           prometheus.Counter
	TrimLogsCreated          prometheus.Counter
	StrainsMerged            prometheus.Counter
}

// New 创建并注册全部指标
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bloomtrack",
			Name:      "http_requests_total",
			Help:      "HTTP 请求总数",
		}, []string{"method", "path", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bloomtrack",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP 请求耗时分布",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		HarvestSessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "bloomtrack",
			Name:      "harvest_sessions_started_total",
			Help:      "启动的收获称重会话总数",
		}),
		HarvestSessionsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "bloomtrack",
			Name:      "harvest_sessions_completed_total",
			Help:      "完成的收获称重会话总数",
		}),
		PlantsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "bloomtrack",
			Name:      "harvest_plants_recorded_total",
			Help:      "录入的单株湿重记录总数",
		}),
		CyclesArchived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "bloomtrack",
			Name:      "cycles_archived_total",
			Help:      "归档的种植周期总数",
		}),
		TrimLogsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "bloomtrack",
			Name:      "trim_logs_created_total",
			Help:      "创建的修剪日志总数",
		}),
		StrainsMerged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "bloomtrack",
			Name:      "strains_merged_total",
			Help:      "品种合并操作总数",
		}),
	}
}

// Handler 返回 /metrics 暴露端点
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// Middleware HTTP 请求计数与耗时统计中间件
// 使用路由模板（FullPath）作为 path 标签，避免高基数
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.httpRequests.WithLabelValues(c.Request.Method, path, status).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
