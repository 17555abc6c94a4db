package usecase

import (
	"context"
	"testing"
	"time"

	"web-page-analyzer/internal/entity"
	"web-page-analyzer/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestRecorder(t *testing.T, session *fakeSession) *RecorderService {
	t.Helper()

	return NewRecorderService(RecorderServiceParams{
		Config:    testConfig(t),
		Logger:    testLogger(),
		Session:   session,
		Describer: &fakeDescriber{},
	})
}

func waitForRecords(t *testing.T, recorder *RecorderService, want int) []entity.ActionRecord {
	t.Helper()

	require.Eventually(t, func() bool {
		return len(recorder.Records()) >= want
	}, 2*time.Second, 5*time.Millisecond)

	return recorder.Records()
}

func TestRecorderCapturesClick(t *testing.T) {
	session := newFakeSession()
	session.setURL("https://example.com/")
	session.pushEvents(entity.RawEvent{
		Key:     "click-1-1",
		Kind:    "click",
		Locator: `//*[@id="go"]`,
		Tag:     "button",
		Text:    "Go",
		URL:     "https://example.com/",
		Attributes: map[string]string{
			"id": "go",
		},
	})

	recorder := newTestRecorder(t, session)
	require.NoError(t, recorder.Start(context.Background()))

	records := waitForRecords(t, recorder, 1)

	stopped, err := recorder.Stop(context.Background())
	require.NoError(t, err)

	assert.Equal(t, entity.RecorderIdle, recorder.State())
	assert.Equal(t, records, stopped)

	record := stopped[0]
	assert.Equal(t, entity.ActionClick, record.Kind)
	assert.Equal(t, `//*[@id="go"]`, record.Locator)
	assert.Equal(t, "button", record.Tag)
	assert.Equal(t, "Clicked on button#go with text 'Go'", record.Description)
}

func TestRecorderSuppressesRepeatedInputValue(t *testing.T) {
	session := newFakeSession()
	session.setURL("https://example.com/")

	attrs := map[string]string{"id": "q"}
	session.pushEvents(entity.RawEvent{Key: "input-1", Kind: "input", Tag: "input", Value: "a", Attributes: attrs})
	session.pushEvents(entity.RawEvent{Key: "input-2", Kind: "input", Tag: "input", Value: "ab", Attributes: attrs})
	session.pushEvents(entity.RawEvent{Key: "input-3", Kind: "input", Tag: "input", Value: "ab", Attributes: attrs})

	recorder := newTestRecorder(t, session)
	require.NoError(t, recorder.Start(context.Background()))

	waitForRecords(t, recorder, 2)

	records, err := recorder.Stop(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].Value)
	assert.Equal(t, "ab", records[1].Value)
}

func TestRecorderDropsSeenKeys(t *testing.T) {
	session := newFakeSession()
	session.setURL("https://example.com/")

	event := entity.RawEvent{Key: "click-7", Kind: "click", Tag: "a", URL: "https://example.com/"}
	session.pushEvents(event)
	session.pushEvents(event)

	recorder := newTestRecorder(t, session)
	require.NoError(t, recorder.Start(context.Background()))

	waitForRecords(t, recorder, 1)
	time.Sleep(50 * time.Millisecond)

	records, err := recorder.Stop(context.Background())
	require.NoError(t, err)

	assert.Len(t, records, 1)
}

func TestRecorderSynthesizesNavigateOnURLChange(t *testing.T) {
	session := newFakeSession()
	session.setURL("https://example.com/")

	recorder := newTestRecorder(t, session)
	require.NoError(t, recorder.Start(context.Background()))

	session.setURL("https://example.com/next")

	records := waitForRecords(t, recorder, 1)
	assert.Equal(t, entity.ActionNavigate, records[0].Kind)
	assert.Equal(t, "https://example.com/next", records[0].URL)

	// Unchanged URL on later polls must not produce more records.
	time.Sleep(50 * time.Millisecond)

	records, err := recorder.Stop(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRecorderReinjectsAfterPageLoad(t *testing.T) {
	session := newFakeSession()
	session.setURL("https://example.com/")

	recorder := newTestRecorder(t, session)
	require.NoError(t, recorder.Start(context.Background()))

	session.dropInjection()

	require.Eventually(t, func() bool {
		return session.injections() >= 2
	}, 2*time.Second, 5*time.Millisecond)

	_, err := recorder.Stop(context.Background())
	require.NoError(t, err)
}

func TestRecorderStartWhileRecording(t *testing.T) {
	session := newFakeSession()
	session.setURL("https://example.com/")

	recorder := newTestRecorder(t, session)
	require.NoError(t, recorder.Start(context.Background()))

	err := recorder.Start(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeRecorderBusy))

	_, err = recorder.Stop(context.Background())
	require.NoError(t, err)
}

func TestRecorderStartRequiresReadyBrowser(t *testing.T) {
	session := newFakeSession()
	session.ready = false

	recorder := newTestRecorder(t, session)

	err := recorder.Start(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeBrowserNotReady))
}

func TestRecorderResolvesLocatorFromLiveTarget(t *testing.T) {
	session := newFakeSession()
	session.setURL("https://example.com/")
	session.targets["e1"] = newFakeElement("input", map[string]string{"id": "field"}, "")
	session.pushEvents(entity.RawEvent{
		Key:     "input-1",
		Ref:     "e1",
		Kind:    "input",
		Locator: "/html/body/input",
		Tag:     "input",
		Value:   "hello",
	})

	recorder := newTestRecorder(t, session)
	require.NoError(t, recorder.Start(context.Background()))

	records := waitForRecords(t, recorder, 1)
	assert.Equal(t, `//*[@id="field"]`, records[0].Locator)

	_, err := recorder.Stop(context.Background())
	require.NoError(t, err)
}

func TestRecorderStaleTargetFallsBackToCapturedPath(t *testing.T) {
	session := newFakeSession()
	session.setURL("https://example.com/")
	session.pushEvents(entity.RawEvent{
		Key:     "click-1",
		Ref:     "gone",
		Kind:    "click",
		Locator: "/html/body/button[2]",
		Tag:     "button",
	})

	recorder := newTestRecorder(t, session)
	require.NoError(t, recorder.Start(context.Background()))

	records := waitForRecords(t, recorder, 1)
	assert.Equal(t, "/html/body/button[2]", records[0].Locator)

	_, err := recorder.Stop(context.Background())
	require.NoError(t, err)
}

func TestRecorderResultsChannelDelivers(t *testing.T) {
	session := newFakeSession()
	session.setURL("https://example.com/")
	session.pushEvents(entity.RawEvent{Key: "click-1", Kind: "click", Tag: "button"})

	recorder := newTestRecorder(t, session)
	require.NoError(t, recorder.Start(context.Background()))

	select {
	case record := <-recorder.Results():
		assert.Equal(t, entity.ActionClick, record.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("no record delivered on results channel")
	}

	_, err := recorder.Stop(context.Background())
	require.NoError(t, err)
}

func TestRecorderRemoteDescriptionPreferred(t *testing.T) {
	session := newFakeSession()
	session.setURL("https://example.com/")
	session.pushEvents(entity.RawEvent{Key: "click-1", Kind: "click", Tag: "button"})

	recorder := NewRecorderService(RecorderServiceParams{
		Config:    testConfig(t),
		Logger:    testLogger(),
		Session:   session,
		Describer: &fakeDescriber{available: true, description: "Clicked the signup button"},
	})

	require.NoError(t, recorder.Start(context.Background()))

	records := waitForRecords(t, recorder, 1)
	assert.Equal(t, "Clicked the signup button", records[0].Description)

	_, err := recorder.Stop(context.Background())
	require.NoError(t, err)
}

func TestRecorderStopSurvivesSlowDescriber(t *testing.T) {
	session := newFakeSession()
	session.setURL("https://example.com/")
	session.pushEvents(entity.RawEvent{Key: "click-1", Kind: "click", Tag: "button"})
	session.pushEvents(entity.RawEvent{Key: "click-2", Kind: "click", Tag: "button"})

	describer := &fakeDescriber{
		available:   true,
		description: "Clicked a button",
		delay:       3 * time.Second,
	}

	recorder := NewRecorderService(RecorderServiceParams{
		Config:    testConfig(t),
		Logger:    testLogger(),
		Session:   session,
		Describer: describer,
	})

	require.NoError(t, recorder.Start(context.Background()))

	// Wait until the poll task is blocked inside the describer, then
	// stop. The description outlives the grace window, so Stop returns
	// while that iteration is still running.
	require.Eventually(t, func() bool {
		return describer.callCount() >= 1
	}, 2*time.Second, 5*time.Millisecond)

	records, err := recorder.Stop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.RecorderIdle, recorder.State())
	assert.Empty(t, records)

	// Let the abandoned iteration finish: it must neither crash nor
	// grow the sequence behind the snapshot Stop returned.
	time.Sleep(1500 * time.Millisecond)
	assert.Empty(t, recorder.Records())

	// The recorder stays usable for a fresh session.
	require.NoError(t, recorder.Start(context.Background()))

	_, err = recorder.Stop(context.Background())
	require.NoError(t, err)
}

func TestRecorderUnknownEventKindIgnored(t *testing.T) {
	session := newFakeSession()
	session.setURL("https://example.com/")
	session.pushEvents(
		entity.RawEvent{Key: "scroll-1", Kind: "scroll"},
		entity.RawEvent{Key: "click-1", Kind: "click", Tag: "a"},
	)

	recorder := newTestRecorder(t, session)
	require.NoError(t, recorder.Start(context.Background()))

	waitForRecords(t, recorder, 1)

	records, err := recorder.Stop(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, entity.ActionClick, records[0].Kind)
}
