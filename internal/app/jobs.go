package app

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"go.uber.org/zap"

	"github.com/evercart/evercart/internal/domain"
	"github.com/evercart/evercart/pkg/metrics"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	var err error
	_, err = a.sched.AddFunc("@every 30s", func() {
		go a.SchedSystemMonitorTask()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@every 60s", func() {
		a.SchedPromotionRefreshTask()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@daily", func() {
		a.SchedActivityLogPruneTask()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	a.sched.Start()
}

// SchedSystemMonitorTask samples host gauges for the dashboard.
func (a *Application) SchedSystemMonitorTask() {
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		_ = metrics.InsertGauge(metrics.MetricCPUUsage, percents[0])
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		_ = metrics.InsertGauge(metrics.MetricMemUsage, vm.UsedPercent)
	}
}

// SchedPromotionRefreshTask keeps the denormalized is_active flag in
// step with each promotion's validity window.
func (a *Application) SchedPromotionRefreshTask() {
	now := time.Now()
	res := a.gormDB.Model(&domain.Promotion{}).
		Where("is_active = ? AND (start_date > ? OR (end_date <> ? AND end_date < ?))",
			true, now, time.Time{}, now).
		Update("is_active", false)
	if res.Error != nil {
		zap.L().Error("promotion deactivation sweep failed", zap.Error(res.Error))
	}
	res = a.gormDB.Model(&domain.Promotion{}).
		Where("is_active = ? AND start_date <= ? AND (end_date = ? OR end_date >= ?)",
			false, now, time.Time{}, now).
		Update("is_active", true)
	if res.Error != nil {
		zap.L().Error("promotion activation sweep failed", zap.Error(res.Error))
	}
}

// SchedActivityLogPruneTask drops activity rows older than the
// configured retention window.
func (a *Application) SchedActivityLogPruneTask() {
	days := a.settings.GetInt64("shop", "activity_retention_days")
	if days <= 0 {
		days = 365
	}
	cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
	res := a.gormDB.Where("created_at < ?", cutoff).Delete(&domain.ActivityLog{})
	if res.Error != nil {
		zap.L().Error("activity log prune failed", zap.Error(res.Error))
	} else if res.RowsAffected > 0 {
		zap.L().Info("pruned activity log", zap.Int64("rows", res.RowsAffected))
	}
}
