package main

import (
	"testing"

	"github.com/go-pulse/pulse/internal/core/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvidePublisherWithoutBrokerURL(t *testing.T) {
	p, err := providePublisher(&notify.Conf{})
	require.NoError(t, err)
	assert.IsType(t, notify.NopPublisher{}, p)
}

func TestProvideSchedulerReturnsGlobal(t *testing.T) {
	s := provideScheduler()
	require.NotNil(t, s)
	assert.Same(t, s, provideScheduler())
}
