package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/efbutils/ufmsim/efb"
	"github.com/efbutils/ufmsim/sim"
	"github.com/efbutils/ufmsim/ufm/reader"
)

var _ = Describe("Monitor", func() {
	var (
		m      *Monitor
		engine *sim.SerialEngine
		r      *reader.Comp
	)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		m.Router().ServeHTTP(rec, req)

		return rec
	}

	BeforeEach(func() {
		engine = sim.NewSerialEngine()

		var err error
		r, err = reader.MakeBuilder().
			WithEngine(engine).
			WithBus(efb.NewPeer(efb.PeerSpec{}, efb.NewMemory(4))).
			Build("Reader")
		Expect(err).NotTo(HaveOccurred())

		m = NewMonitor()
		m.RegisterEngine(engine)
		m.RegisterComponent(r)
	})

	It("should replace privileged ports", func() {
		Expect(m.WithPortNumber(80).portNumber).To(Equal(0))
		Expect(m.WithPortNumber(32776).portNumber).To(Equal(32776))
	})

	It("should list components", func() {
		rec := get("/api/list_components")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(`["Reader"]`))
	})

	It("should report the current cycle", func() {
		_, err := r.ReadByte(context.Background(), 0x10)
		Expect(err).NotTo(HaveOccurred())

		rec := get("/api/now")

		var rsp struct{ Now uint64 }
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.Now).To(Equal(uint64(engine.CurrentTime())))
		Expect(rsp.Now).To(BeNumerically(">", 0))
	})

	It("should show the registers of a stage", func() {
		_, err := r.ReadByte(context.Background(), 0x25)
		Expect(err).NotTo(HaveOccurred())

		rec := get("/api/state/Reader.PageBuffer")

		Expect(rec.Code).To(Equal(http.StatusOK))

		var st struct {
			FSM     int
			CurPage int
		}
		Expect(json.Unmarshal(rec.Body.Bytes(), &st)).To(Succeed())
		Expect(st.CurPage).To(Equal(2))
	})

	It("should answer 404 for unknown names", func() {
		Expect(get("/api/state/Nothing").Code).To(Equal(http.StatusNotFound))
		Expect(get("/api/component/Nothing").Code).
			To(Equal(http.StatusNotFound))
	})

	It("should list progress bars until they complete", func() {
		bar := m.CreateProgressBar("dump", 32)
		bar.IncrementInProgress(8)
		bar.MoveInProgressToFinished(4)

		var bars []ProgressBarStatus
		Expect(json.Unmarshal(get("/api/progress").Body.Bytes(), &bars)).
			To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0].Name).To(Equal("dump"))
		Expect(bars[0].Finished).To(Equal(uint64(4)))
		Expect(bars[0].InProgress).To(Equal(uint64(4)))

		m.CompleteProgressBar(bar)

		Expect(get("/api/progress").Body.String()).To(MatchJSON(`[]`))
	})

	It("should pause and continue the engine", func() {
		Expect(get("/api/pause").Code).To(Equal(http.StatusOK))
		Expect(get("/api/continue").Code).To(Equal(http.StatusOK))

		_, err := r.ReadByte(context.Background(), 0x10)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should report process resources", func() {
		var rsp resourceRsp
		Expect(json.Unmarshal(get("/api/resource").Body.Bytes(), &rsp)).
			To(Succeed())
		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})

	It("should serve the page", func() {
		rec := get("/")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("ufmsim monitor"))
	})

	It("should run a server", func() {
		url, err := m.WithPortNumber(0).StartServer()
		Expect(err).NotTo(HaveOccurred())
		defer func() { Expect(m.StopServer()).To(Succeed()) }()

		rsp, err := http.Get(url + "/api/list_components")
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		Expect(rsp.StatusCode).To(Equal(http.StatusOK))
	})
})
