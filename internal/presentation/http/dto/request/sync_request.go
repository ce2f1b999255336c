package request

import "github.com/sangkips/qbo-connector/pkg/pagination"

// SyncListQuery represents the filters of the sync status view
type SyncListQuery struct {
	Status string `form:"status"`
	pagination.PaginationParams
}

// OAuthCallbackQuery represents the parameters Intuit redirects with
type OAuthCallbackQuery struct {
	Code    string `form:"code"`
	RealmID string `form:"realmId"`
	State   string `form:"state"`
}
