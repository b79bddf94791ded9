package ports

import (
	"github.com/gin-gonic/gin"
)

type HTTPHandler interface {
	IngestSample(c *gin.Context)
	GetSessionReport(c *gin.Context)
	GenerateSessionReport(c *gin.Context)
	GetAggregateStatistics(c *gin.Context)
	GetThresholds(c *gin.Context)
	SetThresholds(c *gin.Context)
	GetSessionProfile(c *gin.Context)
}
