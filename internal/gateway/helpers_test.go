package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"

	mock_logger "motoka/pkg/logger/mock"
	mock_metric "motoka/pkg/metric/mock"

	"github.com/golang/mock/gomock"
)

func newTestDeps(t *testing.T) (*mock_metric.MockGateway, *mock_logger.MockLogger) {
	t.Helper()

	ctrl := gomock.NewController(t)

	metrics := mock_metric.NewMockGateway(ctrl)
	metrics.EXPECT().Call(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	log := mock_logger.NewMockLogger(ctrl)
	log.EXPECT().LogAttrs(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	return metrics, log
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}
