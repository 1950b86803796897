package archive

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"go1090/internal/tracker"
)

func TestArchiveNoopWithoutSinksConfigured(t *testing.T) {
	s := New(logrus.New())
	a := &tracker.Aircraft{Addr: 0x4B9696}

	err := s.Archive(context.Background(), a, "*8D4B9696...;\n", time.Now())
	require.NoError(t, err)

	require.NotPanics(t, s.Close)
}
