package crawler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TotalPagesCrawled tracks pages that produced a PageRecord.
	TotalPagesCrawled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sitecrawler_pages_total",
		Help: "The total number of pages extracted across all crawls.",
	})
	// TotalPageErrors tracks pages that failed to fetch or extract.
	TotalPageErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sitecrawler_page_errors_total",
		Help: "The total number of per-page extraction failures.",
	})
	// TotalRobotsDenied tracks URLs skipped because robots rules denied them.
	TotalRobotsDenied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sitecrawler_robots_denied_total",
		Help: "The total number of URLs skipped due to robots.txt rules.",
	})
	// TotalCrawls tracks crawl invocations.
	TotalCrawls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sitecrawler_crawls_total",
		Help: "The total number of crawl runs started.",
	})
)
