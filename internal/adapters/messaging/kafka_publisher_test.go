package messaging

import "testing"

func TestNewKafkaPublisherValidatesConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     KafkaConfig
		wantErr bool
	}{
		{name: "no brokers", cfg: KafkaConfig{Topic: "loan-events"}, wantErr: true},
		{name: "no topic", cfg: KafkaConfig{Brokers: []string{"localhost:9092"}}, wantErr: true},
		{name: "valid", cfg: KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "loan-events"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := NewKafkaPublisher(tc.cfg, nil)
			if (err != nil) != tc.wantErr {
				t.Fatalf("NewKafkaPublisher error = %v, wantErr %v", err, tc.wantErr)
			}
			if p != nil {
				if err := p.Close(); err != nil {
					t.Fatalf("Close error = %v", err)
				}
			}
		})
	}
}
