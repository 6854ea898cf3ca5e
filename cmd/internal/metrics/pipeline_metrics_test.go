package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
)

func TestRecordLanguageVersion(t *testing.T) {
	// Reset metrics before test
	LanguageVersionsTotal.Reset()

	RecordLanguageVersion("de", true)

	metric := &dto.Metric{}
	if err := LanguageVersionsTotal.WithLabelValues("de", "success").Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Errorf("Expected counter value 1, got %f", metric.Counter.GetValue())
	}

	RecordLanguageVersion("de", true)
	RecordLanguageVersion("de", false)

	metric = &dto.Metric{}
	if err := LanguageVersionsTotal.WithLabelValues("de", "success").Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2 {
		t.Errorf("Expected counter value 2, got %f", metric.Counter.GetValue())
	}

	metric = &dto.Metric{}
	if err := LanguageVersionsTotal.WithLabelValues("de", "error").Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Errorf("Expected counter value 1, got %f", metric.Counter.GetValue())
	}
}

func TestRecordError(t *testing.T) {
	PipelineErrorsTotal.Reset()

	RecordError("transcribe", "FAILED_TRANSCRIPTION")

	metric := &dto.Metric{}
	if err := PipelineErrorsTotal.WithLabelValues("transcribe", "FAILED_TRANSCRIPTION").Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Errorf("Expected counter value 1, got %f", metric.Counter.GetValue())
	}
}

func TestSetDegraded(t *testing.T) {
	SetDegraded(true)

	metric := &dto.Metric{}
	if err := TranscriberDegraded.Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() != 1 {
		t.Errorf("Expected gauge value 1, got %f", metric.Gauge.GetValue())
	}

	SetDegraded(false)
	metric = &dto.Metric{}
	if err := TranscriberDegraded.Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() != 0 {
		t.Errorf("Expected gauge value 0, got %f", metric.Gauge.GetValue())
	}
}

func TestInFlightLanguages(t *testing.T) {
	InFlightLanguages.Set(0)

	LanguageStarted()
	LanguageStarted()
	LanguageFinished()

	metric := &dto.Metric{}
	if err := InFlightLanguages.Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() != 1 {
		t.Errorf("Expected gauge value 1, got %f", metric.Gauge.GetValue())
	}
}

func TestRecordStageDuration(t *testing.T) {
	StageDuration.Reset()

	// Histogram recording should not panic across stages and magnitudes
	RecordStageDuration("transcribe", 5.5)
	RecordStageDuration("translate", 10.0)
	RecordStageDuration("convert", 0.3)
}

func TestRecordCacheLookup(t *testing.T) {
	CacheRequestsTotal.Reset()

	RecordCacheLookup("version", true)
	RecordCacheLookup("version", false)
	RecordCacheLookup("translation", true)

	metric := &dto.Metric{}
	if err := CacheRequestsTotal.WithLabelValues("version", "hit").Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Errorf("Expected counter value 1, got %f", metric.Counter.GetValue())
	}
}
