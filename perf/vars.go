package perf

import (
	"expvar"

	"github.com/encodeous/metric"
)

var (
	DispatchLatency = metric.NewHistogram("1m1s")
	PublishesPerSec = metric.NewCounter("10s1s")
	InboundPerSec   = metric.NewCounter("10s1s")
	DroppedPerSec   = metric.NewCounter("10s1s")
	NoRoutePerSec   = metric.NewCounter("10s1s")
	FloodFanoutSize = metric.NewHistogram("10s1s")
	SpfRunsPerSec   = metric.NewCounter("10s1s")
)

func init() {
	expvar.Publish("rednet:DispatchLatency (µs)", DispatchLatency)
	expvar.Publish("rednet:Publishes/s", PublishesPerSec)
	expvar.Publish("rednet:Inbound/s", InboundPerSec)
	expvar.Publish("rednet:Dropped/s", DroppedPerSec)
	expvar.Publish("rednet:NoRoute/s", NoRoutePerSec)
	expvar.Publish("rednet:FloodFanout", FloodFanoutSize)
	expvar.Publish("rednet:SpfRuns/s", SpfRunsPerSec)
}
