package models

import "time"

// HostTelemetry captures resource usage of the machine running the dashboard host.
type HostTelemetry struct {
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryPercent float64   `json:"memory_percent"`
	MemoryUsed    uint64    `json:"memory_used_bytes"`
	MemoryTotal   uint64    `json:"memory_total_bytes"`
	DiskPercent   float64   `json:"disk_percent"`
	DiskUsed      uint64    `json:"disk_used_bytes"`
	DiskTotal     uint64    `json:"disk_total_bytes"`
	NetInBps      float64   `json:"net_in_bps"`
	NetOutBps     float64   `json:"net_out_bps"`
	Load1         float64   `json:"load1"`
	UptimeSeconds uint64    `json:"uptime_seconds"`
	HealthPercent float64   `json:"health_percent"`
	SampledAt     time.Time `json:"sampled_at"`
}

// DatabaseHealth is the database section of a system_health_update push.
type DatabaseHealth struct {
	ResponseTime string `json:"responseTime,omitempty"`
	Connections  string `json:"connections,omitempty"`
	Storage      string `json:"storage,omitempty"`
}

// AIHealth is the generation-service section of a system_health_update push.
type AIHealth struct {
	APICalls    string `json:"apiCalls,omitempty"`
	SuccessRate string `json:"successRate,omitempty"`
	Queue       string `json:"queue,omitempty"`
	Latency     string `json:"latency,omitempty"`
	ErrorRate   string `json:"errorRate,omitempty"`
}

// ServerHealth is the server section of a system_health_update push.
type ServerHealth struct {
	CPU     string `json:"cpu,omitempty"`
	Memory  string `json:"memory,omitempty"`
	Disk    string `json:"disk,omitempty"`
	Network string `json:"network,omitempty"`
	Load    string `json:"load,omitempty"`
}

// SystemHealth is the last pushed health report. Sections are nil until the
// server has reported them.
type SystemHealth struct {
	Database  *DatabaseHealth `json:"database,omitempty"`
	AI        *AIHealth       `json:"ai,omitempty"`
	Server    *ServerHealth   `json:"server,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Merge overlays the sections present in next onto h. Sections missing from
// next keep their previous values.
func (h SystemHealth) Merge(next SystemHealth) SystemHealth {
	out := h
	if next.Database != nil {
		out.Database = next.Database
	}
	if next.AI != nil {
		out.AI = next.AI
	}
	if next.Server != nil {
		out.Server = next.Server
	}
	if !next.UpdatedAt.IsZero() {
		out.UpdatedAt = next.UpdatedAt
	}
	return out
}
