package kafkat_test

import (
	mock_logger "motoka/pkg/logger/mock"

	"github.com/golang/mock/gomock"
)

func newLogger(ctrl *gomock.Controller) *mock_logger.MockLogger {
	log := mock_logger.NewMockLogger(ctrl)
	log.EXPECT().LogAttrs(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Debugw(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Infow(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Warnw(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Errorw(gomock.Any(), gomock.Any()).AnyTimes()
	return log
}
