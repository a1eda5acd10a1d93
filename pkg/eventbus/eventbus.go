// Package eventbus 基于 MQTT 的业务事件总线，向场馆闸机和管理端推送预订事件
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// 事件主题
const (
	TopicBookingCreated   = "campus/booking/created"
	TopicBookingPaid      = "campus/booking/paid"
	TopicBookingCancelled = "campus/booking/cancelled"
	TopicBookingCheckedIn = "campus/booking/checked_in"
	TopicBookingCompleted = "campus/booking/completed"
	TopicPaymentRefunded  = "campus/payment/refunded"
)

// Event 总线事件
type Event struct {
	Type        string          `json:"type"`
	BookingID   int64           `json:"booking_id,omitempty"`
	BookingCode string          `json:"booking_code,omitempty"`
	FacilityID  int64           `json:"facility_id,omitempty"`
	Timestamp   int64           `json:"timestamp"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// Publisher 事件发布接口
type Publisher interface {
	Publish(ctx context.Context, topic string, event *Event) error
	Close()
}

// Config MQTT 总线配置
type Config struct {
	Broker        string `mapstructure:"broker"`
	ClientID      string `mapstructure:"client_id"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	CleanSession  bool   `mapstructure:"clean_session"`
	QoS           byte   `mapstructure:"qos"`
	KeepAlive     int    `mapstructure:"keep_alive"`
	AutoReconnect bool   `mapstructure:"auto_reconnect"`
}

// MessageHandler 订阅消息处理器
type MessageHandler func(topic string, payload []byte)

// Bus MQTT 事件总线
type Bus struct {
	config   *Config
	client   mqtt.Client
	handlers map[string]MessageHandler
	mu       sync.RWMutex
}

// NewBus 创建事件总线
func NewBus(config *Config) *Bus {
	return &Bus{
		config:   config,
		handlers: make(map[string]MessageHandler),
	}
}

// Connect 连接 MQTT Broker
func (b *Bus) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(b.config.Broker)
	opts.SetClientID(b.config.ClientID)
	opts.SetUsername(b.config.Username)
	opts.SetPassword(b.config.Password)
	opts.SetCleanSession(b.config.CleanSession)
	opts.SetKeepAlive(time.Duration(b.config.KeepAlive) * time.Second)
	opts.SetAutoReconnect(b.config.AutoReconnect)
	opts.SetConnectionLostHandler(b.onConnectionLost)
	opts.SetOnConnectHandler(b.onConnect)

	b.client = mqtt.NewClient(opts)

	if token := b.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("eventbus connect error: %w", token.Error())
	}

	log.Printf("[EventBus] Connected to broker: %s", b.config.Broker)
	return nil
}

// Close 断开连接
func (b *Bus) Close() {
	if b.client != nil && b.client.IsConnected() {
		b.client.Disconnect(250)
		log.Println("[EventBus] Disconnected from broker")
	}
}

// IsConnected 检查是否已连接
func (b *Bus) IsConnected() bool {
	return b.client != nil && b.client.IsConnected()
}

// Publish 发布事件（带超时）
func (b *Bus) Publish(ctx context.Context, topic string, event *Event) error {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("eventbus marshal event error: %w", err)
	}

	token := b.client.Publish(topic, b.config.QoS, false, data)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-token.Done():
		if token.Error() != nil {
			return fmt.Errorf("eventbus publish error: %w", token.Error())
		}
		return nil
	}
}

// Subscribe 订阅主题，管理端监听预订事件用
func (b *Bus) Subscribe(topic string, handler MessageHandler) error {
	b.mu.Lock()
	b.handlers[topic] = handler
	b.mu.Unlock()

	token := b.client.Subscribe(topic, b.config.QoS, func(client mqtt.Client, msg mqtt.Message) {
		b.mu.RLock()
		h, ok := b.handlers[msg.Topic()]
		b.mu.RUnlock()
		if ok {
			h(msg.Topic(), msg.Payload())
		}
	})

	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("eventbus subscribe error: %w", token.Error())
	}

	log.Printf("[EventBus] Subscribed to topic: %s", topic)
	return nil
}

// Unsubscribe 取消订阅
func (b *Bus) Unsubscribe(topics ...string) error {
	token := b.client.Unsubscribe(topics...)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("eventbus unsubscribe error: %w", token.Error())
	}

	b.mu.Lock()
	for _, topic := range topics {
		delete(b.handlers, topic)
	}
	b.mu.Unlock()
	return nil
}

// onConnect 连接成功后恢复订阅
func (b *Bus) onConnect(client mqtt.Client) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for topic := range b.handlers {
		if token := b.client.Subscribe(topic, b.config.QoS, func(_ mqtt.Client, msg mqtt.Message) {
			b.mu.RLock()
			h, ok := b.handlers[msg.Topic()]
			b.mu.RUnlock()
			if ok {
				h(msg.Topic(), msg.Payload())
			}
		}); token.Wait() && token.Error() != nil {
			log.Printf("[EventBus] Resubscribe error for topic %s: %v", topic, token.Error())
		}
	}
}

func (b *Bus) onConnectionLost(client mqtt.Client, err error) {
	log.Printf("[EventBus] Connection lost: %v", err)
}

// NopPublisher 空实现，未配置 MQTT 时使用
type NopPublisher struct{}

// Publish 丢弃事件
func (NopPublisher) Publish(ctx context.Context, topic string, event *Event) error {
	return nil
}

// Close 无操作
func (NopPublisher) Close() {}
