package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/league --output domain/league --outpkg leaguemock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name DataSource --dir ../usecase --output usecase --outpkg usecasemock --filename data_source_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name MatchTracker --dir ../usecase --output usecase --outpkg usecasemock --filename match_tracker_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name LeagueRefresher --dir ../usecase --output usecase --outpkg usecasemock --filename league_refresher_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name DashboardService --dir ../interfaces/httpapi --output httpapi --outpkg httpapimock --filename dashboard_service_mock.go
