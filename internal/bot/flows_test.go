package bot

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ivanoskov/billbot/internal/model"
	"github.com/ivanoskov/billbot/internal/ocr"
	"github.com/ivanoskov/billbot/internal/service"
)

const testUserID int64 = 7

var _ = Describe("Bot", func() {
	var (
		tg        *fakeTelegram
		fetcher   *fakeFetcher
		extractor *fakeExtractor
		resolver  *fakeResolver
		repo      *memRepo
		renderer  *fakeRenderer
		chart     *fakeCharts
		mail      *fakeMailer
		images    *fakeImages
		sessions  *MemoryStore
		b         *Bot
	)

	seedBill := func(shop string, total float64, created time.Time) model.Bill {
		bill := model.Bill{
			UserID:     testUserID,
			ShopName:   strptr(shop),
			ShopType:   strptr("Cafe"),
			TotalPrice: floatptr(total),
			Currency:   "USD",
			ImagePath:  "/bills/7/" + shop + ".jpg",
			Status:     model.StatusProcessed,
			CreatedAt:  created,
		}
		bill.GenerateID()
		repo.bills = append(repo.bills, bill)
		return bill
	}

	uploadBill := func() {
		b.HandleUpdate(photoUpdate(testUserID))
		tg.reset()
	}

	BeforeEach(func() {
		tg = &fakeTelegram{}
		fetcher = &fakeFetcher{data: []byte("jpeg bytes")}
		extractor = &fakeExtractor{
			bill: &model.Bill{
				ShopName:   strptr("Blue Bottle"),
				ShopType:   strptr("Cafe"),
				Location:   strptr("Oakland"),
				TotalPrice: floatptr(42.50),
				Currency:   "USD",
				TaxAmount:  floatptr(3.50),
				Menu: []model.LineItem{
					{Item: "Latte", Quantity: 2, Price: 12},
					{Item: "Croissant", Quantity: 1, Price: 5.5},
				},
				Status: model.StatusProcessed,
			},
			description: "Coffee run",
		}
		resolver = &fakeResolver{known: map[string]string{
			"12 jan": "2026-01-12",
			"20 jan": "2026-01-20",
		}}
		repo = &memRepo{}
		renderer = &fakeRenderer{dir: GinkgoT().TempDir()}
		chart = &fakeCharts{}
		mail = &fakeMailer{}
		images = newFakeImages()
		sessions = NewMemoryStore(0)

		tracker := service.NewBillTracker(repo, renderer, chart, mail, images)
		b = newBot(tg, fetcher, Options{
			Tracker:   tracker,
			Extractor: extractor,
			Resolver:  resolver,
			Images:    images,
			Sessions:  sessions,
			Timeout:   time.Second,
		})
	})

	Describe("bill ingestion", func() {
		When("extraction succeeds", func() {
			BeforeEach(func() {
				b.HandleUpdate(photoUpdate(testUserID))
			})

			It("acknowledges receipt before processing", func() {
				Expect(tg.texts()[0]).To(ContainSubstring("Processing your bill"))
			})

			It("sends the parsed summary", func() {
				Expect(tg.lastText()).To(ContainSubstring("Bill Parsed Successfully"))
				Expect(tg.lastText()).To(ContainSubstring("Blue Bottle"))
				Expect(tg.lastText()).To(ContainSubstring("USD 42.50"))
			})

			It("offers the three description choices", func() {
				kb, ok := tg.lastKeyboard()
				Expect(ok).To(BeTrue())
				Expect(kb.InlineKeyboard).To(HaveLen(2))
				Expect(kb.InlineKeyboard[0]).To(HaveLen(2))
				Expect(kb.InlineKeyboard[1]).To(HaveLen(1))
			})

			It("parks the bill as pending without persisting it", func() {
				session, ok := sessions.Get(testUserID)
				Expect(ok).To(BeTrue())
				Expect(session.PendingBill).NotTo(BeNil())
				Expect(session.PendingBill.Bill.UserID).To(Equal(testUserID))
				Expect(session.PendingBill.Bill.ImagePath).NotTo(BeEmpty())
				Expect(repo.bills).To(BeEmpty())
			})

			It("stores the downloaded image", func() {
				Expect(images.saved).To(HaveLen(1))
			})
		})

		When("extraction fails", func() {
			BeforeEach(func() {
				extractor.parseErr = errors.New("model unavailable")
				b.HandleUpdate(photoUpdate(testUserID))
			})

			It("parks the fallback record instead of failing", func() {
				session, _ := sessions.Get(testUserID)
				bill := session.PendingBill.Bill
				Expect(bill.ShopName).To(BeNil())
				Expect(bill.TotalPrice).To(BeNil())
				Expect(bill.Currency).To(Equal(model.FallbackCurrency))
				Expect(*bill.Description).To(Equal(ocr.FallbackDescription))
				Expect(bill.Status).To(Equal(model.StatusFailed))
				Expect(bill.ImagePath).NotTo(BeEmpty())
			})

			It("still offers the description choices", func() {
				_, ok := tg.lastKeyboard()
				Expect(ok).To(BeTrue())
			})
		})

		When("the download fails", func() {
			BeforeEach(func() {
				fetcher.fetchErr = errors.New("timeout")
				b.HandleUpdate(photoUpdate(testUserID))
			})

			It("reports the error and parks nothing", func() {
				Expect(tg.lastText()).To(ContainSubstring("Error processing your bill"))
				_, ok := sessions.Get(testUserID)
				Expect(ok).To(BeFalse())
			})
		})

		When("a pending bill already exists", func() {
			BeforeEach(func() {
				b.HandleUpdate(photoUpdate(testUserID))
				b.HandleUpdate(photoUpdate(testUserID))
			})

			It("replaces it and warns about the discarded bill", func() {
				Expect(tg.lastText()).To(ContainSubstring("previous unsaved bill was discarded"))
			})
		})
	})

	Describe("description choice", func() {
		When("the user skips the description", func() {
			BeforeEach(func() {
				uploadBill()
				b.HandleUpdate(callbackUpdate(testUserID, callbackDescSkip))
			})

			It("saves the bill without a description", func() {
				Expect(repo.bills).To(HaveLen(1))
				Expect(repo.bills[0].Description).To(BeNil())
			})

			It("confirms and clears the pending slot", func() {
				Expect(tg.lastText()).To(ContainSubstring("Bill Saved Successfully"))
				_, ok := sessions.Get(testUserID)
				Expect(ok).To(BeFalse())
			})
		})

		When("the user types a manual description", func() {
			BeforeEach(func() {
				uploadBill()
				b.HandleUpdate(callbackUpdate(testUserID, callbackDescManual))
			})

			It("asks for the description text", func() {
				Expect(tg.lastText()).To(ContainSubstring("type your description"))
				session, _ := sessions.Get(testUserID)
				Expect(session.PendingBill).NotTo(BeNil())
			})

			When("the text arrives", func() {
				BeforeEach(func() {
					b.HandleUpdate(textUpdate(testUserID, "Lunch with team"))
				})

				It("saves the bill with that description", func() {
					Expect(repo.bills).To(HaveLen(1))
					Expect(*repo.bills[0].Description).To(Equal("Lunch with team"))
				})

				It("routes later text to the default reply", func() {
					tg.reset()
					b.HandleUpdate(textUpdate(testUserID, "hello?"))
					Expect(tg.lastText()).To(Equal(defaultReplyText))
				})
			})
		})

		When("the user types without pressing a button", func() {
			BeforeEach(func() {
				uploadBill()
				b.HandleUpdate(textUpdate(testUserID, "Team dinner"))
			})

			It("consumes the text as the description", func() {
				Expect(repo.bills).To(HaveLen(1))
				Expect(*repo.bills[0].Description).To(Equal("Team dinner"))
				_, ok := sessions.Get(testUserID)
				Expect(ok).To(BeFalse())
			})
		})

		When("the user picks auto-generate", func() {
			BeforeEach(func() {
				uploadBill()
			})

			It("saves with the generated description", func() {
				b.HandleUpdate(callbackUpdate(testUserID, callbackDescAuto))
				Expect(repo.bills).To(HaveLen(1))
				Expect(*repo.bills[0].Description).To(Equal("Coffee run"))
			})

			It("saves with the description unset when generation fails", func() {
				extractor.describeErr = errors.New("model unavailable")
				b.HandleUpdate(callbackUpdate(testUserID, callbackDescAuto))
				Expect(repo.bills).To(HaveLen(1))
				Expect(repo.bills[0].Description).To(BeNil())
			})
		})

		When("no bill is pending", func() {
			BeforeEach(func() {
				b.HandleUpdate(callbackUpdate(testUserID, callbackDescSkip))
			})

			It("reports the expired session", func() {
				Expect(tg.lastText()).To(ContainSubstring("Session expired"))
			})
		})

		When("persistence fails", func() {
			BeforeEach(func() {
				uploadBill()
				repo.createErr = errors.New("database down")
				b.HandleUpdate(callbackUpdate(testUserID, callbackDescSkip))
			})

			It("reports the failure and keeps the pending bill", func() {
				Expect(tg.lastText()).To(ContainSubstring("Failed to save bill"))
				session, ok := sessions.Get(testUserID)
				Expect(ok).To(BeTrue())
				Expect(session.PendingBill).NotTo(BeNil())
			})

			It("lets the next attempt succeed", func() {
				repo.createErr = nil
				b.HandleUpdate(callbackUpdate(testUserID, callbackDescSkip))
				Expect(repo.bills).To(HaveLen(1))
				_, ok := sessions.Get(testUserID)
				Expect(ok).To(BeFalse())
			})
		})
	})

	Describe("export", func() {
		It("offers the two export options on /export", func() {
			b.HandleUpdate(commandUpdate(testUserID, "/export"))
			kb, ok := tg.lastKeyboard()
			Expect(ok).To(BeTrue())
			Expect(kb.InlineKeyboard).To(HaveLen(2))
		})

		When("exporting all bills", func() {
			BeforeEach(func() {
				seedBill("Blue Bottle", 42.50, time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC))
				seedBill("Whole Foods", 130, time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC))
				b.HandleUpdate(callbackUpdate(testUserID, callbackExportAll))
			})

			It("renders every bill and sends the workbook", func() {
				Expect(renderer.gotBills).To(HaveLen(2))
				docs := tg.documents()
				Expect(docs).To(HaveLen(1))
				Expect(docs[0].Caption).To(Equal("All your bills exported successfully"))
			})
		})

		When("no bills exist", func() {
			BeforeEach(func() {
				b.HandleUpdate(callbackUpdate(testUserID, callbackExportAll))
			})

			It("reports the empty range without rendering", func() {
				Expect(tg.lastText()).To(ContainSubstring("No bills found for this date range"))
				Expect(renderer.gotBills).To(BeEmpty())
				Expect(tg.documents()).To(BeEmpty())
			})
		})

		When("exporting a date range", func() {
			BeforeEach(func() {
				seedBill("Blue Bottle", 42.50, time.Date(2026, 1, 14, 12, 0, 0, 0, time.UTC))
				b.HandleUpdate(callbackUpdate(testUserID, callbackExportRange))
			})

			It("prompts for the start date", func() {
				Expect(tg.lastText()).To(ContainSubstring("start date"))
			})

			When("the user answers with natural language and NA", func() {
				BeforeEach(func() {
					b.HandleUpdate(textUpdate(testUserID, "12 jan"))
					b.HandleUpdate(textUpdate(testUserID, "NA"))
				})

				It("queries from the resolved date with an open end", func() {
					Expect(repo.lastFilter.StartDate).NotTo(BeNil())
					Expect(*repo.lastFilter.StartDate).To(Equal(time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)))
					Expect(repo.lastFilter.EndDate).To(BeNil())
				})

				It("delivers the workbook named after the range", func() {
					docs := tg.documents()
					Expect(docs).To(HaveLen(1))
					Expect(docs[0].Caption).To(Equal("Your bills from 2026-01-12 onwards"))
				})

				It("clears the export flow", func() {
					_, ok := sessions.Get(testUserID)
					Expect(ok).To(BeFalse())
				})
			})

			When("a date cannot be parsed", func() {
				BeforeEach(func() {
					b.HandleUpdate(textUpdate(testUserID, "whenever"))
				})

				It("re-prompts without advancing the flow", func() {
					Expect(tg.lastText()).To(ContainSubstring("Invalid date format"))
					session, _ := sessions.Get(testUserID)
					Expect(session.Export.Step).To(Equal(ExportAwaitingStart))
				})

				It("accepts a valid date afterwards", func() {
					b.HandleUpdate(textUpdate(testUserID, "12 jan"))
					session, _ := sessions.Get(testUserID)
					Expect(session.Export.Step).To(Equal(ExportAwaitingEnd))
				})
			})
		})
	})

	Describe("email reports", func() {
		BeforeEach(func() {
			bill := seedBill("Blue Bottle", 42.50, time.Date(2026, 1, 14, 12, 0, 0, 0, time.UTC))
			images.saved[bill.ImagePath] = []byte("jpeg")
		})

		It("offers the two email options on /email", func() {
			b.HandleUpdate(commandUpdate(testUserID, "/email"))
			kb, ok := tg.lastKeyboard()
			Expect(ok).To(BeTrue())
			Expect(kb.InlineKeyboard).To(HaveLen(2))
		})

		When("the address is invalid", func() {
			BeforeEach(func() {
				b.HandleUpdate(callbackUpdate(testUserID, callbackEmailAll))
			})

			It("re-prompts for each malformed address", func() {
				for _, address := range []string{"john@", "john.com", "@example.com"} {
					b.HandleUpdate(textUpdate(testUserID, address))
					Expect(tg.lastText()).To(ContainSubstring("Invalid email format"), "address %q", address)
				}
				session, _ := sessions.Get(testUserID)
				Expect(session.Email.Step).To(Equal(EmailAwaitingEmail))
				Expect(mail.calls).To(BeEmpty())
			})
		})

		When("emailing all bills", func() {
			BeforeEach(func() {
				b.HandleUpdate(callbackUpdate(testUserID, callbackEmailAll))
				b.HandleUpdate(textUpdate(testUserID, "john@example.com"))
			})

			It("sends the report to the address", func() {
				Expect(mail.calls).To(HaveLen(1))
				Expect(mail.calls[0].to).To(Equal("john@example.com"))
				Expect(mail.calls[0].excelPath).NotTo(BeEmpty())
				Expect(mail.calls[0].startDate).To(BeNil())
				Expect(mail.calls[0].endDate).To(BeNil())
			})

			It("attaches the stored bill images", func() {
				Expect(mail.calls[0].imagePaths).To(HaveLen(1))
			})

			It("confirms and clears the flow", func() {
				Expect(tg.lastText()).To(Equal("✅ Bills sent successfully to john@example.com!"))
				_, ok := sessions.Get(testUserID)
				Expect(ok).To(BeFalse())
			})
		})

		When("emailing a date range", func() {
			BeforeEach(func() {
				b.HandleUpdate(callbackUpdate(testUserID, callbackEmailRange))
				b.HandleUpdate(textUpdate(testUserID, "john@example.com"))
				b.HandleUpdate(textUpdate(testUserID, "12 jan"))
				b.HandleUpdate(textUpdate(testUserID, "20 jan"))
			})

			It("passes both bounds to the mailer", func() {
				Expect(mail.calls).To(HaveLen(1))
				Expect(*mail.calls[0].startDate).To(Equal("2026-01-12"))
				Expect(*mail.calls[0].endDate).To(Equal("2026-01-20"))
			})
		})

		When("no bills match", func() {
			BeforeEach(func() {
				repo.bills = nil
				b.HandleUpdate(callbackUpdate(testUserID, callbackEmailAll))
				b.HandleUpdate(textUpdate(testUserID, "john@example.com"))
			})

			It("reports the empty range without sending", func() {
				Expect(tg.lastText()).To(ContainSubstring("No bills found for this date range"))
				Expect(mail.calls).To(BeEmpty())
				_, ok := sessions.Get(testUserID)
				Expect(ok).To(BeFalse())
			})
		})

		When("delivery fails", func() {
			BeforeEach(func() {
				mail.sendErr = errors.New("smtp refused")
				b.HandleUpdate(callbackUpdate(testUserID, callbackEmailAll))
				b.HandleUpdate(textUpdate(testUserID, "john@example.com"))
			})

			It("reports the failure and keeps the flow for a retry", func() {
				Expect(tg.lastText()).To(ContainSubstring("Failed to send email"))
				session, ok := sessions.Get(testUserID)
				Expect(ok).To(BeTrue())
				Expect(session.Email).NotTo(BeNil())
			})
		})
	})

	Describe("listing and deleting", func() {
		It("nudges the user when no bills exist", func() {
			b.HandleUpdate(commandUpdate(testUserID, "/list"))
			Expect(tg.lastText()).To(ContainSubstring("No bills found"))
		})

		It("lists bills newest first", func() {
			seedBill("Older Shop", 10, time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC))
			seedBill("Newer Shop", 20, time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))

			b.HandleUpdate(commandUpdate(testUserID, "/list"))
			Expect(tg.lastText()).To(ContainSubstring("1. Newer Shop"))
			Expect(tg.lastText()).To(ContainSubstring("2. Older Shop"))
		})

		It("explains /delete usage when the id is missing", func() {
			b.HandleUpdate(commandUpdate(testUserID, "/delete"))
			Expect(tg.lastText()).To(ContainSubstring("Usage: /delete"))
		})

		It("reports a missing bill on delete", func() {
			b.HandleUpdate(commandUpdate(testUserID, "/delete nope"))
			Expect(tg.lastText()).To(ContainSubstring("Bill not found"))
		})

		It("deletes the record and its image", func() {
			bill := seedBill("Blue Bottle", 42.50, time.Date(2026, 1, 14, 12, 0, 0, 0, time.UTC))

			b.HandleUpdate(commandUpdate(testUserID, "/delete "+bill.ID))
			Expect(tg.lastText()).To(ContainSubstring("Bill deleted"))
			Expect(repo.bills).To(BeEmpty())
			Expect(images.removed).To(ContainElement(bill.ImagePath))
		})
	})

	Describe("routing", func() {
		It("replies with the welcome text on /start", func() {
			b.HandleUpdate(commandUpdate(testUserID, "/start"))
			Expect(tg.lastText()).To(ContainSubstring("Welcome to BillBot"))
		})

		It("falls back to the default reply for free text", func() {
			b.HandleUpdate(textUpdate(testUserID, "what can you do"))
			Expect(tg.lastText()).To(Equal(defaultReplyText))
		})

		It("invalidates unknown callback payloads", func() {
			b.HandleUpdate(callbackUpdate(testUserID, "bogus_action"))
			Expect(tg.lastText()).To(ContainSubstring("no longer valid"))
		})
	})
})
