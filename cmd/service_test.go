package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewType(t *testing.T) {
	ty := NewType("_Companion-Link._tcp")
	assert.Equal(t, "_companion-link._tcp", ty.Name)
	assert.Equal(t, "local", ty.Domain)
	assert.Equal(t, "_companion-link._tcp.local", ty.String())

	ty = NewType("_http._tcp.example.com")
	assert.Equal(t, "_http._tcp", ty.Name)
	assert.Equal(t, "example.com", ty.Domain)
}

func TestTypeValidate(t *testing.T) {
	assert.NoError(t, NewType("_companion-link._tcp").Validate())
	assert.NoError(t, NewType("_sleep-proxy._udp").Validate())
	assert.Error(t, NewType("_companion-link").Validate())
	assert.Error(t, NewType("_companion-link._sctp").Validate())
}

func testService() *Service {
	return &Service{
		Type:     NewType("_companion-link._tcp"),
		Name:     "Office Mac",
		Port:     58645,
		Hostname: "office-mac.local",
		TTL:      4500,
		HostTTL:  120,
	}
}

func TestServiceNames(t *testing.T) {
	svc := testService()
	assert.NoError(t, svc.Validate())
	assert.Equal(t, "_companion-link._tcp.local.", svc.queryName())
	assert.Equal(t, "Office Mac._companion-link._tcp.local.", svc.target())
	assert.Equal(t, "office-mac.local.", svc.hostname())

	svc.Name = `v1.2\x`
	assert.Equal(t, `v1\.2\\x._companion-link._tcp.local.`, svc.target())
}

func TestServiceValidate(t *testing.T) {
	svc := testService()
	svc.Port = 0
	assert.Error(t, svc.Validate())

	svc = testService()
	svc.Name = ""
	assert.Error(t, svc.Validate())

	svc = testService()
	svc.Hostname = ""
	assert.Error(t, svc.Validate())
}
