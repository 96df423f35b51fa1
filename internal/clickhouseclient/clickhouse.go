package clickhouseclient

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"

	"VPNLogSift/internal/config"
	"VPNLogSift/internal/models"
	"VPNLogSift/internal/transform"
)

const (
	insertSessions = "INSERT INTO %s (" +
		"RunID, Bundle, SessionID, StartTS, EndTS, Outcome, FailReason, FailDetail, " +
		"Portal, Gateway, User, ClientIP, Reconnects, PortalMs, AuthMs, GatewayMs, TunnelMs, EventCount" +
		") VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)"
	insertEvents = "INSERT INTO %s (" +
		"RunID, Bundle, SessionID, Timestamp, Severity, Component, EventType, Message, " +
		"Portal, Gateway, User, ClientIP, Reason, Source" +
		") VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)"
)

// batchTimeout — отдельный таймаут на отправку, чтобы остановка сервиса не обрывала вставку
const batchTimeout = 60 * time.Second

type Client struct {
	conn          clickhouse.Conn
	SessionsTable string
	EventsTable   string
	Redact        bool
	Logger        *zap.Logger
}

// New создает клиента ClickHouse
func New(cfg config.ClickHouseConfig, redact bool, logger *zap.Logger) (*Client, error) {
	protocol := clickhouse.Native
	if cfg.Protocol == "http" {
		protocol = clickhouse.HTTP
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Address},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
		Protocol:    protocol,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	return &Client{
		conn:          conn,
		SessionsTable: cfg.SessionsTable,
		EventsTable:   cfg.EventsTable,
		Redact:        redact,
		Logger:        logger,
	}, nil
}

// InsertSessionBatch отправляет сессии в SessionsTable, а их события — в EventsTable
func (c *Client) InsertSessionBatch(_ context.Context, records []models.SessionRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := c.insertSessions(records); err != nil {
		return err
	}
	if c.EventsTable == "" {
		return nil
	}
	return c.insertEvents(records)
}

func (c *Client) insertSessions(records []models.SessionRecord) error {
	dbCtx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	batch, err := c.conn.PrepareBatch(dbCtx, fmt.Sprintf(insertSessions, c.SessionsTable))
	if err != nil {
		c.Logger.Error("prepare batch", zap.Error(err), zap.String("table", c.SessionsTable))
		return fmt.Errorf("prepare batch: %w", err)
	}
	for _, rec := range records {
		s := rec.Session
		row := transform.TransformSession(s, c.Redact)
		if err := batch.Append(
			rec.RunID,
			rec.Bundle,
			uint32(row.SessionID),
			s.StartTS,
			s.EndTS,
			row.Outcome,
			row.FailReason,
			row.FailDetail,
			row.Portal,
			row.Gateway,
			row.User,
			row.ClientIP,
			uint32(row.Reconnects),
			row.PortalMs,
			row.AuthMs,
			row.GatewayMs,
			row.TunnelMs,
			uint32(len(s.Events)),
		); err != nil {
			c.Logger.Error("append batch", zap.Error(err), zap.Int("session", s.SessionID))
			return fmt.Errorf("append: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		c.Logger.Error("send batch", zap.Error(err), zap.String("table", c.SessionsTable))
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

func (c *Client) insertEvents(records []models.SessionRecord) error {
	dbCtx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	batch, err := c.conn.PrepareBatch(dbCtx, fmt.Sprintf(insertEvents, c.EventsTable))
	if err != nil {
		c.Logger.Error("prepare batch", zap.Error(err), zap.String("table", c.EventsTable))
		return fmt.Errorf("prepare batch: %w", err)
	}
	for _, rec := range records {
		for _, ev := range rec.Session.Events {
			row := transform.TransformEvent(ev, c.Redact)
			if err := batch.Append(
				rec.RunID,
				rec.Bundle,
				uint32(rec.Session.SessionID),
				ev.Timestamp,
				row.Severity,
				row.Component,
				row.EventType,
				row.Message,
				row.Portal,
				row.Gateway,
				row.User,
				row.ClientIP,
				row.Reason,
				row.Source,
			); err != nil {
				c.Logger.Error("append batch", zap.Error(err), zap.String("event", ev.EventType))
				return fmt.Errorf("append: %w", err)
			}
		}
	}
	if err := batch.Send(); err != nil {
		c.Logger.Error("send batch", zap.Error(err), zap.String("table", c.EventsTable))
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// Close закрывает соединение с ClickHouse
func (c *Client) Close() error {
	return c.conn.Close()
}
