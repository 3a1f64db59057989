package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/justapithecus/drayage/interchange"
	"github.com/justapithecus/drayage/ledger"
	"github.com/justapithecus/drayage/log"
	"github.com/justapithecus/drayage/transport"
	"github.com/justapithecus/drayage/types"
)

const sampleEDI = "ISA*00*          *00*          *ZZ*SENDER         *01*RECEIVER       *240115*1200*U*00401*000000001*0*P*>~\n" +
	"GS*PO*SENDER*RECEIVER*20240115*1200*1*X*004010~\n" +
	"ST*850*0001~\n" +
	"BEG*00*SA*PO123**20240115~\n" +
	"REF*DP*DEPT1~\n" +
	"N1*BT*Acme*92*CUST1~\n" +
	"N1*ST*Acme Warehouse*92*CUST2~\n" +
	"PO1*1*10*EA*5.00***UP*SKU1~\n" +
	"CTT*1~\n" +
	"SE*8*0001~\n" +
	"GE*1*1~\n" +
	"IEA*1*000000001~"

type fakeTransport struct {
	files     map[string]string
	processed []string
	rejected  []string
	acks      map[string][]byte

	downloadErr error
	markErr     error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		files: map[string]string{"po_001.edi": sampleEDI},
		acks:  make(map[string][]byte),
	}
}

func (f *fakeTransport) Download(name string) (string, error) {
	if f.downloadErr != nil {
		return "", f.downloadErr
	}
	content, ok := f.files[name]
	if !ok {
		return "", &transport.Error{Op: "retr", Name: name, Err: errors.New("no such file")}
	}
	return content, nil
}

func (f *fakeTransport) MarkProcessed(name string) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.processed = append(f.processed, name)
	return nil
}

func (f *fakeTransport) MarkRejected(name string) error {
	f.rejected = append(f.rejected, name)
	return nil
}

func (f *fakeTransport) UploadAck(name string, ack []byte) error {
	f.acks[name] = ack
	return nil
}

type fakeService struct {
	readErr     error
	validateErr error
	ackErr      error
	rejectWith  []string

	reads, validates, ackCalls int
}

func serviceInterchange() interchange.Interchange {
	return interchange.Interchange{
		ISA: interchange.ISA{
			SenderQualifier: "ZZ",
			SenderID:        "SENDER",
			ReceiverID:      "RECEIVER",
		},
		Groups: []interchange.FunctionalGroup{{
			GS: interchange.GS{SenderCode: "SENDER", ReceiverCode: "RECEIVER"},
			Transactions: []interchange.Transaction{{
				ST:  interchange.ST{IdentifierCode: "850", ControlNumber: "0001"},
				BEG: interchange.BEG{PONumber: "PO123", Date: "20240115"},
				N1Loop: []interchange.N1Entry{
					{N1: interchange.N1{EntityIdentifierCode: "BT", Name: "Acme", IdentificationCode: "CUST1"}},
				},
				PO1Loop: []interchange.PO1Entry{
					{PO1: interchange.PO1{
						AssignedIdentification: "1",
						QuantityOrdered:        "10",
						UnitOfMeasure:          "EA",
						UnitPrice:              "5.00",
						ProductServiceID:       "SKU1",
					}},
				},
			}},
		}},
	}
}

func (f *fakeService) Read(context.Context, string) ([]interchange.Interchange, error) {
	f.reads++
	if f.readErr != nil {
		return nil, f.readErr
	}
	return []interchange.Interchange{serviceInterchange()}, nil
}

func (f *fakeService) Validate(context.Context, *interchange.Interchange) (*interchange.OperationResult, error) {
	f.validates++
	if f.validateErr != nil {
		return nil, f.validateErr
	}
	if len(f.rejectWith) > 0 {
		result := &interchange.OperationResult{Status: "error"}
		for _, m := range f.rejectWith {
			result.Details = append(result.Details, interchange.ResultDetail{Message: m})
		}
		return result, nil
	}
	return &interchange.OperationResult{Status: "success"}, nil
}

func (f *fakeService) Ack(context.Context, *interchange.Interchange) ([]byte, error) {
	f.ackCalls++
	if f.ackErr != nil {
		return nil, f.ackErr
	}
	return []byte("ISA*997~"), nil
}

type fakeLedger struct {
	docs   map[string]*types.Document
	orders map[string]*types.PurchaseOrder
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		docs:   make(map[string]*types.Document),
		orders: make(map[string]*types.PurchaseOrder),
	}
}

func (f *fakeLedger) Document(_ context.Context, name string) (*types.Document, error) {
	doc, ok := f.docs[name]
	if !ok {
		return nil, fmt.Errorf("ledger: document %s: %w", name, ledger.ErrNotFound)
	}
	c := *doc
	return &c, nil
}

func (f *fakeLedger) Claim(_ context.Context, doc *types.Document) error {
	c := *doc
	f.docs[doc.ID] = &c
	return nil
}

func (f *fakeLedger) Update(_ context.Context, doc *types.Document) error {
	c := *doc
	f.docs[doc.ID] = &c
	return nil
}

func (f *fakeLedger) Complete(_ context.Context, doc *types.Document, po *types.PurchaseOrder) error {
	c := *doc
	f.docs[doc.ID] = &c
	f.orders[po.Header.PONumber] = po
	return nil
}

type fakeArchive struct {
	saved map[string][]byte
	err   error
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{saved: make(map[string][]byte)}
}

func (f *fakeArchive) SaveFile(_ context.Context, filename, docType string, content []byte) error {
	if f.err != nil {
		return f.err
	}
	f.saved[docType+"/"+filename] = content
	return nil
}

type fakeDispatcher struct {
	sent []*types.PurchaseOrder
	err  error
}

func (f *fakeDispatcher) Send(_ context.Context, po *types.PurchaseOrder) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, po)
	return nil
}

type fixture struct {
	transport  *fakeTransport
	service    *fakeService
	ledger     *fakeLedger
	archive    *fakeArchive
	dispatcher *fakeDispatcher
	pipeline   *Pipeline
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{
		transport:  newFakeTransport(),
		service:    &fakeService{},
		ledger:     newFakeLedger(),
		archive:    newFakeArchive(),
		dispatcher: &fakeDispatcher{},
	}

	logger := log.New("test").WithOutput(io.Discard)
	p, err := New(cfg, f.transport, f.service, f.ledger, f.archive, f.dispatcher, logger)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	f.pipeline = p
	return f
}

func (f *fixture) status(t *testing.T, name string) types.DocumentStatus {
	t.Helper()
	doc, ok := f.ledger.docs[name]
	if !ok {
		t.Fatalf("no ledger record for %s", name)
	}
	return doc.Status
}

func TestNew_ServiceModeRequiresService(t *testing.T) {
	logger := log.New("test").WithOutput(io.Discard)
	_, err := New(Config{Mode: ModeService}, newFakeTransport(), nil, newFakeLedger(), newFakeArchive(), &fakeDispatcher{}, logger)
	if err == nil {
		t.Error("expected error for nil service in service mode")
	}
}

func TestProcess_ServiceMode_HappyPath(t *testing.T) {
	f := newFixture(t, Config{Mode: ModeService})

	if err := f.pipeline.Process(context.Background(), "po_001.edi"); err != nil {
		t.Fatalf("process: %v", err)
	}

	if got := f.status(t, "po_001.edi"); got != types.StatusCompleted {
		t.Errorf("expected completed, got %s", got)
	}
	if len(f.dispatcher.sent) != 1 || f.dispatcher.sent[0].Header.PONumber != "PO123" {
		t.Errorf("dispatched orders: %+v", f.dispatcher.sent)
	}
	if _, ok := f.archive.saved["850/po_001.edi"]; !ok {
		t.Error("raw 850 not archived")
	}
	if _, ok := f.archive.saved["997/po_001.edi"]; !ok {
		t.Error("997 not archived")
	}
	if string(f.transport.acks["po_001.edi"]) != "ISA*997~" {
		t.Error("997 not uploaded")
	}
	if len(f.transport.processed) != 1 {
		t.Errorf("processed markers: %v", f.transport.processed)
	}
	if _, ok := f.ledger.orders["PO123"]; !ok {
		t.Error("order not stored in ledger")
	}
	if f.ledger.docs["po_001.edi"].ParsedContent == "" {
		t.Error("parsed content not recorded")
	}
}

func TestProcess_LocalMode_HappyPath(t *testing.T) {
	f := newFixture(t, Config{Mode: ModeLocal})

	if err := f.pipeline.Process(context.Background(), "po_001.edi"); err != nil {
		t.Fatalf("process: %v", err)
	}

	if got := f.status(t, "po_001.edi"); got != types.StatusCompleted {
		t.Errorf("expected completed, got %s", got)
	}
	if f.service.reads != 0 || f.service.validates != 0 || f.service.ackCalls != 0 {
		t.Error("local mode called the remote service")
	}
	if len(f.transport.acks) != 0 {
		t.Error("local mode uploaded an acknowledgment")
	}
	if _, ok := f.archive.saved["850/po_001.edi"]; !ok {
		t.Error("raw 850 not archived")
	}
	if len(f.transport.processed) != 1 {
		t.Errorf("processed markers: %v", f.transport.processed)
	}
}

func TestProcess_SkipsSettledFile(t *testing.T) {
	for _, status := range []types.DocumentStatus{types.StatusCompleted, types.StatusParseError} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t, Config{Mode: ModeService})
			doc := types.NewDocument("po_001.edi", "po_001.edi", "x")
			doc.Status = status
			f.ledger.docs["po_001.edi"] = doc

			if err := f.pipeline.Process(context.Background(), "po_001.edi"); err != nil {
				t.Fatalf("process: %v", err)
			}
			if f.service.reads != 0 {
				t.Error("settled file was reprocessed")
			}
			if len(f.dispatcher.sent) != 0 {
				t.Error("settled file was dispatched")
			}
		})
	}
}

func TestProcess_LocalMode_MalformedDateDeadLetters(t *testing.T) {
	f := newFixture(t, Config{Mode: ModeLocal})
	f.transport.files["po_bad.edi"] = "BEG*00*SA*PO9**2024011~"

	if err := f.pipeline.Process(context.Background(), "po_bad.edi"); err != nil {
		t.Fatalf("process: %v", err)
	}

	if got := f.status(t, "po_bad.edi"); got != types.StatusParseError {
		t.Errorf("expected parse_error, got %s", got)
	}
	if len(f.transport.rejected) != 1 || f.transport.rejected[0] != "po_bad.edi" {
		t.Errorf("rejected markers: %v", f.transport.rejected)
	}
	if len(f.transport.processed) != 0 {
		t.Error("dead-lettered file marked processed")
	}
	if len(f.dispatcher.sent) != 0 {
		t.Error("dead-lettered file dispatched")
	}
}

func TestProcess_ValidationRejection(t *testing.T) {
	f := newFixture(t, Config{Mode: ModeService})
	f.service.rejectWith = []string{"missing REF"}

	if err := f.pipeline.Process(context.Background(), "po_001.edi"); err != nil {
		t.Fatalf("process: %v", err)
	}

	if got := f.status(t, "po_001.edi"); got != types.StatusError {
		t.Errorf("expected error, got %s", got)
	}
	if len(f.transport.rejected) != 1 {
		t.Errorf("rejected markers: %v", f.transport.rejected)
	}
	if f.service.ackCalls != 0 {
		t.Error("rejected document acknowledged")
	}
	if len(f.dispatcher.sent) != 0 {
		t.Error("rejected document dispatched")
	}
}

func TestProcess_ServiceReadFailureIsTransient(t *testing.T) {
	f := newFixture(t, Config{Mode: ModeService})
	f.service.readErr = errors.New("edination unavailable")

	if err := f.pipeline.Process(context.Background(), "po_001.edi"); err != nil {
		t.Fatalf("process: %v", err)
	}

	if got := f.status(t, "po_001.edi"); got != types.StatusError {
		t.Errorf("expected error, got %s", got)
	}
	if len(f.transport.rejected) != 0 {
		t.Error("service outage dead-lettered the file")
	}
	if len(f.transport.processed) != 0 {
		t.Error("unprocessed file marked processed")
	}
}

func TestProcess_DispatchFailureLeavesFileUnmarked(t *testing.T) {
	f := newFixture(t, Config{Mode: ModeService})
	f.dispatcher.err = errors.New("flowsync down")

	if err := f.pipeline.Process(context.Background(), "po_001.edi"); err != nil {
		t.Fatalf("process: %v", err)
	}

	if got := f.status(t, "po_001.edi"); got != types.StatusError {
		t.Errorf("expected error, got %s", got)
	}
	if len(f.transport.processed) != 0 {
		t.Error("file marked processed despite dispatch failure")
	}
	if len(f.transport.rejected) != 0 {
		t.Error("valid document dead-lettered on dispatch failure")
	}
}

func TestProcess_DispatchFailureRetriedNextCycle(t *testing.T) {
	f := newFixture(t, Config{Mode: ModeService})
	f.dispatcher.err = errors.New("flowsync down")

	if err := f.pipeline.Process(context.Background(), "po_001.edi"); err != nil {
		t.Fatalf("first cycle: %v", err)
	}
	if got := f.status(t, "po_001.edi"); got != types.StatusError {
		t.Fatalf("after first cycle: expected error, got %s", got)
	}

	// FlowSync recovers; the unmarked file is listed again next cycle.
	f.dispatcher.err = nil
	if err := f.pipeline.Process(context.Background(), "po_001.edi"); err != nil {
		t.Fatalf("second cycle: %v", err)
	}

	if got := f.status(t, "po_001.edi"); got != types.StatusCompleted {
		t.Errorf("after retry: expected completed, got %s", got)
	}
	if len(f.dispatcher.sent) != 1 || f.dispatcher.sent[0].Header.PONumber != "PO123" {
		t.Errorf("order not dispatched on retry: %+v", f.dispatcher.sent)
	}
	if len(f.transport.processed) != 1 {
		t.Errorf("file not marked processed on retry: %v", f.transport.processed)
	}
	if _, ok := f.ledger.orders["PO123"]; !ok {
		t.Error("order not stored in ledger on retry")
	}
}

func TestProcess_ResumesDocumentStrandedByCrash(t *testing.T) {
	f := newFixture(t, Config{Mode: ModeService})
	stranded := types.NewDocument("po_001.edi", "po_001.edi", sampleEDI)
	stranded.Status = types.StatusSendingToShopify
	f.ledger.docs["po_001.edi"] = stranded

	if err := f.pipeline.Process(context.Background(), "po_001.edi"); err != nil {
		t.Fatalf("process: %v", err)
	}

	if got := f.status(t, "po_001.edi"); got != types.StatusCompleted {
		t.Errorf("expected completed, got %s", got)
	}
	if len(f.dispatcher.sent) != 1 {
		t.Errorf("stranded document not dispatched: %+v", f.dispatcher.sent)
	}
	if len(f.transport.processed) != 1 {
		t.Errorf("stranded document not marked processed: %v", f.transport.processed)
	}
}

func TestProcess_DownloadFailurePropagates(t *testing.T) {
	f := newFixture(t, Config{Mode: ModeService})
	f.transport.downloadErr = &transport.Error{Op: "retr", Err: errors.New("connection reset")}

	err := f.pipeline.Process(context.Background(), "po_001.edi")
	if err == nil {
		t.Fatal("expected transport error to propagate")
	}
	if !IsTransportError(err) {
		t.Errorf("expected transport error, got %v", err)
	}
}

func TestProcess_MarkProcessedFailurePropagates(t *testing.T) {
	f := newFixture(t, Config{Mode: ModeService})
	f.transport.markErr = &transport.Error{Op: "rename", Err: errors.New("connection reset")}

	err := f.pipeline.Process(context.Background(), "po_001.edi")
	if err == nil {
		t.Fatal("expected transport error to propagate")
	}
	if got := f.status(t, "po_001.edi"); got != types.StatusError {
		t.Errorf("expected error, got %s", got)
	}
}
